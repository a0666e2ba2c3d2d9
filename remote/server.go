package remote

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/ledger"
)

// Server exposes a Store over HTTP:
//
//	GET /v1/snapshots/:uid
//	PUT /v1/snapshots/:uid
//	GET /healthz
//
// When token is set every snapshot request must carry it as a bearer token.
type Server struct {
	store  Store
	token  string
	engine *gin.Engine
}

func NewServer(store Store, token, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	s := &Server{store: store, token: token, engine: gin.New()}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.engine.Group("/v1", s.auth())
	api.GET("/snapshots/:uid", s.getSnapshot)
	api.PUT("/snapshots/:uid", s.putSnapshot)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got != s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) getSnapshot(c *gin.Context) {
	uid := c.Param("uid")
	snap, err := s.store.Fetch(c.Request.Context(), uid)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		logger.Warnf("remote: fetch %s: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) putSnapshot(c *gin.Context) {
	uid := c.Param("uid")
	var snap ledger.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.Upsert(c.Request.Context(), uid, snap); err != nil {
		logger.Warnf("remote: upsert %s: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Debugf("remote: stored snapshot for %s (%d records, %d trades)", uid, len(snap.Records), len(snap.ReportTrades))
	c.Status(http.StatusNoContent)
}
