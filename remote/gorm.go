package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/ledger"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type snapshotModel struct {
	UID               string         `gorm:"column:uid;primaryKey"`
	Records           datatypes.JSON `gorm:"column:records;type:TEXT"`
	ReportTrades      datatypes.JSON `gorm:"column:report_trades;type:TEXT"`
	InitialCapital    string         `gorm:"column:initial_capital"`
	WeeklyTarget      string         `gorm:"column:weekly_target"`
	MonthlyTarget     string         `gorm:"column:monthly_target"`
	ShowTargetsOnHome bool           `gorm:"column:show_targets_on_home"`
	LastSynced        string         `gorm:"column:last_synced"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
}

func (snapshotModel) TableName() string { return "snapshots" }

// GormStore keeps snapshots in a SQLite database through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens or creates the database at path.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm store: %w", err)
	}
	if err := db.AutoMigrate(&snapshotModel{}); err != nil {
		return nil, fmt.Errorf("gorm store: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Fetch(ctx context.Context, uid string) (ledger.Snapshot, error) {
	var m snapshotModel
	err := s.db.WithContext(ctx).First(&m, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return ledger.Snapshot{}, err
	}

	snap := ledger.Snapshot{
		InitialCapital:    parseDecimal(m.InitialCapital),
		WeeklyTarget:      parseDecimal(m.WeeklyTarget),
		MonthlyTarget:     parseDecimal(m.MonthlyTarget),
		ShowTargetsOnHome: m.ShowTargetsOnHome,
		LastSynced:        m.LastSynced,
	}
	if len(m.Records) > 0 {
		if err := json.Unmarshal(m.Records, &snap.Records); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("decode records: %w", err)
		}
	}
	if len(m.ReportTrades) > 0 {
		if err := json.Unmarshal(m.ReportTrades, &snap.ReportTrades); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("decode trades: %w", err)
		}
	}
	return snap, nil
}

func (s *GormStore) Upsert(ctx context.Context, uid string, snap ledger.Snapshot) error {
	records, err := json.Marshal(nonNil(snap.Records))
	if err != nil {
		return err
	}
	trades, err := json.Marshal(nonNil(snap.ReportTrades))
	if err != nil {
		return err
	}
	m := snapshotModel{
		UID:               uid,
		Records:           datatypes.JSON(records),
		ReportTrades:      datatypes.JSON(trades),
		InitialCapital:    snap.InitialCapital.String(),
		WeeklyTarget:      snap.WeeklyTarget.String(),
		MonthlyTarget:     snap.MonthlyTarget.String(),
		ShowTargetsOnHome: snap.ShowTargetsOnHome,
		LastSynced:        snap.LastSynced,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		UpdateAll: true,
	}).Create(&m).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
