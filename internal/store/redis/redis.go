// Package redis stores the roster, history and overrides in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/meister-server/internal/store"
)

const (
	defaultPrefix = "meister:"
	userSeqField  = "seq"
)

// RedisStore implements store.Store on top of a go-redis client.
//
// Layout: the roster is a sorted set scored by insertion sequence, the
// history is a list of JSON records and overrides are a hash of JSON values.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// New connects to the Redis server described by url (redis://host:port/db).
func New(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) keyRoster() string    { return s.prefix + "roster" }
func (s *RedisStore) keyCounters() string  { return s.prefix + "counters" }
func (s *RedisStore) keyMatches() string   { return s.prefix + "matches" }
func (s *RedisStore) keyOverrides() string { return s.prefix + "overrides" }

// ==== RosterStore implementation ====

// ListUsers returns roster names in insertion order.
func (s *RedisStore) ListUsers(ctx context.Context) ([]string, error) {
	names, err := s.rdb.ZRange(ctx, s.keyRoster(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange roster: %w", err)
	}
	return names, nil
}

// AddUser appends a name to the roster.
func (s *RedisStore) AddUser(ctx context.Context, name string) error {
	seq, err := s.rdb.HIncrBy(ctx, s.keyCounters(), userSeqField, 1).Result()
	if err != nil {
		return fmt.Errorf("roster sequence: %w", err)
	}
	added, err := s.rdb.ZAddNX(ctx, s.keyRoster(), redis.Z{Score: float64(seq), Member: name}).Result()
	if err != nil {
		return fmt.Errorf("zadd roster: %w", err)
	}
	if added == 0 {
		return store.ErrExists
	}
	return nil
}

// RemoveUser deletes a name from the roster.
func (s *RedisStore) RemoveUser(ctx context.Context, name string) error {
	removed, err := s.rdb.ZRem(ctx, s.keyRoster(), name).Result()
	if err != nil {
		return fmt.Errorf("zrem roster: %w", err)
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ==== HistoryStore implementation ====

type matchJSON struct {
	ID          string    `json:"id"`
	RoomID      int       `json:"roomId"`
	BlackPlayer string    `json:"blackPlayer"`
	WhitePlayer string    `json:"whitePlayer"`
	WinnerName  string    `json:"winnerName,omitempty"`
	LoserName   string    `json:"loserName,omitempty"`
	Reason      string    `json:"reason"`
	BlackCount  int       `json:"blackCount"`
	WhiteCount  int       `json:"whiteCount"`
	Moves       int       `json:"moves"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// AppendMatch pushes a finished game onto the history list.
func (s *RedisStore) AppendMatch(ctx context.Context, rec *store.MatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	raw, err := json.Marshal(matchJSON(*rec))
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.keyMatches(), raw).Err(); err != nil {
		return fmt.Errorf("rpush match: %w", err)
	}
	return nil
}

// ListMatches returns the full history, oldest first.
func (s *RedisStore) ListMatches(ctx context.Context) ([]*store.MatchRecord, error) {
	raws, err := s.rdb.LRange(ctx, s.keyMatches(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange matches: %w", err)
	}
	out := make([]*store.MatchRecord, 0, len(raws))
	for _, raw := range raws {
		var m matchJSON
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		rec := store.MatchRecord(m)
		out = append(out, &rec)
	}
	return out, nil
}

// ==== OverrideStore implementation ====

type overrideJSON struct {
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListOverrides returns every override ordered by name.
func (s *RedisStore) ListOverrides(ctx context.Context) ([]*store.StatOverride, error) {
	all, err := s.rdb.HGetAll(ctx, s.keyOverrides()).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall overrides: %w", err)
	}
	out := make([]*store.StatOverride, 0, len(all))
	for name, raw := range all {
		var o overrideJSON
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("decode override %s: %w", name, err)
		}
		out = append(out, &store.StatOverride{
			Name:      name,
			Wins:      o.Wins,
			Losses:    o.Losses,
			Draws:     o.Draws,
			UpdatedAt: o.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PutOverride inserts or replaces the override for o.Name.
func (s *RedisStore) PutOverride(ctx context.Context, o *store.StatOverride) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now()
	}
	raw, err := json.Marshal(overrideJSON{Wins: o.Wins, Losses: o.Losses, Draws: o.Draws, UpdatedAt: o.UpdatedAt})
	if err != nil {
		return fmt.Errorf("encode override: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.keyOverrides(), o.Name, raw).Err(); err != nil {
		return fmt.Errorf("hset override: %w", err)
	}
	return nil
}

// DeleteOverride removes the override for name.
func (s *RedisStore) DeleteOverride(ctx context.Context, name string) error {
	n, err := s.rdb.HDel(ctx, s.keyOverrides(), name).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("hdel override: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*RedisStore)(nil)
