package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() ledger.Snapshot {
	st := ledger.State{
		Entries: []ledger.Entry{{
			ID:           "01HM0000000000000000000000",
			Date:         "2024-01-10T12:00:00.000Z",
			Amount:       decimal.RequireFromString("102.5"),
			Kind:         ledger.KindTrade,
			SourceImport: true,
			Note:         "Imported 1 trades (1 won, 0 lost) on EURUSD",
			UpdatedAt:    1700000000000,
		}},
		Trades: []ledger.Trade{{
			PositionID: "123456789",
			Symbol:     "EURUSD",
			Direction:  ledger.Buy,
			Volume:     decimal.RequireFromString("1"),
			Profit:     decimal.RequireFromString("105"),
			Commission: decimal.RequireFromString("-2"),
			Swap:       decimal.RequireFromString("-0.5"),
			CloseTime:  "2024.01.10 10:00:00",
			Outcome:    ledger.Win,
			UpdatedAt:  1700000000000,
		}},
		Settings: ledger.Settings{
			InitialCapital:    decimal.RequireFromString("1000"),
			WeeklyTarget:      decimal.RequireFromString("50"),
			ShowTargetsOnHome: true,
		},
	}
	return ledger.NewSnapshot(st, time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC))
}

// exerciseStore checks the contract every Store implementation shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Fetch(ctx, "alice")
	require.ErrorIs(t, err, ErrNotFound)

	want := testSnapshot()
	require.NoError(t, s.Upsert(ctx, "alice", want))

	got, err := s.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, want.LastSynced, got.LastSynced)
	assert.True(t, want.InitialCapital.Equal(got.InitialCapital))
	assert.True(t, want.WeeklyTarget.Equal(got.WeeklyTarget))
	assert.True(t, got.ShowTargetsOnHome)
	require.Len(t, got.Records, 1)
	assert.Equal(t, want.Records[0].ID, got.Records[0].ID)
	assert.True(t, want.Records[0].Amount.Equal(got.Records[0].Amount))
	assert.Equal(t, want.Records[0].UpdatedAt, got.Records[0].UpdatedAt)
	require.Len(t, got.ReportTrades, 1)
	assert.Equal(t, "123456789", got.ReportTrades[0].PositionID)
	assert.Equal(t, ledger.Win, got.ReportTrades[0].Outcome)

	// a second upsert replaces the document
	want.Records = nil
	want.LastSynced = "2024-01-12T08:00:00.000Z"
	require.NoError(t, s.Upsert(ctx, "alice", want))
	got, err = s.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got.Records)
	assert.Equal(t, "2024-01-12T08:00:00.000Z", got.LastSynced)

	_, err = s.Fetch(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	exerciseStore(t, NewMemory())
}

func TestGormStore(t *testing.T) {
	t.Parallel()

	s, err := NewGormStore(filepath.Join(t.TempDir(), "remote", "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)

	assert.True(t, mr.Exists(DefaultRedisPrefix+"alice"))
	assert.Equal(t, "true", mr.HGet(DefaultRedisPrefix+"alice", "showTargetsOnHome"))
}

func TestHTTPStoreAgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(NewMemory(), "secret", "test").Handler())
	t.Cleanup(srv.Close)

	exerciseStore(t, NewHTTPStore(srv.URL, "secret", time.Second))

	_, err := NewHTTPStore(srv.URL, "wrong", time.Second).Fetch(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestServerRejectsBadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(NewMemory(), "", "test").Handler())
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/snapshots/alice", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, config.RemoteConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, config.RemoteConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, config.RemoteConfig{Driver: "http", URL: "http://localhost:1", Timeout: "2s"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPStore{}, s)

	s, err = Open(ctx, config.RemoteConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, config.RemoteConfig{Driver: "redis", Addr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.RemoteConfig{Driver: "ftp"})
	assert.Error(t, err)
}
