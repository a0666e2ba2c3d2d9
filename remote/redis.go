package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rustyeddy/tradejournal/ledger"
)

// DefaultRedisPrefix namespaces snapshot hashes.
const DefaultRedisPrefix = "tradejournal:snapshot:"

// RedisStore keeps each snapshot as one hash whose fields are the snapshot's
// top-level fields, so an upsert merges by field.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) key(uid string) string { return s.prefix + uid }

func (s *RedisStore) Fetch(ctx context.Context, uid string) (ledger.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.key(uid)).Result()
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if len(fields) == 0 {
		return ledger.Snapshot{}, ErrNotFound
	}

	snap := ledger.Snapshot{
		InitialCapital: parseDecimal(fields["initialCapital"]),
		WeeklyTarget:   parseDecimal(fields["weeklyTarget"]),
		MonthlyTarget:  parseDecimal(fields["monthlyTarget"]),
		LastSynced:     fields["lastSynced"],
	}
	snap.ShowTargetsOnHome, _ = strconv.ParseBool(fields["showTargetsOnHome"])
	if v := fields["records"]; v != "" {
		if err := json.Unmarshal([]byte(v), &snap.Records); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("decode records: %w", err)
		}
	}
	if v := fields["reportTrades"]; v != "" {
		if err := json.Unmarshal([]byte(v), &snap.ReportTrades); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("decode trades: %w", err)
		}
	}
	return snap, nil
}

func (s *RedisStore) Upsert(ctx context.Context, uid string, snap ledger.Snapshot) error {
	records, err := json.Marshal(nonNil(snap.Records))
	if err != nil {
		return err
	}
	trades, err := json.Marshal(nonNil(snap.ReportTrades))
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key(uid), map[string]any{
		"records":           string(records),
		"reportTrades":      string(trades),
		"initialCapital":    snap.InitialCapital.String(),
		"weeklyTarget":      snap.WeeklyTarget.String(),
		"monthlyTarget":     snap.MonthlyTarget.String(),
		"showTargetsOnHome": strconv.FormatBool(snap.ShowTargetsOnHome),
		"lastSynced":        snap.LastSynced,
	}).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
