// Package leaderboard ranks players by their best daily and expedition
// scores. Redis sorted sets back it when configured; otherwise scores live in
// process memory.
package leaderboard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Board names a ranking.
type Board string

const (
	BoardDaily      Board = "daily"
	BoardExpedition Board = "expedition"
)

func (b Board) Valid() bool { return b == BoardDaily || b == BoardExpedition }

var ErrUnknownBoard = errors.New("unknown board")

// DefaultLimit is the number of entries returned by Top when limit <= 0.
const DefaultLimit = 10

// Daily boards outlive their day so late readers still see yesterday.
const dailyTTL = 48 * time.Hour

type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Ranker records and ranks scores. A player keeps only their best score per
// board and day.
type Ranker interface {
	Submit(ctx context.Context, b Board, day time.Time, playerID, name string, score int) error
	Top(ctx context.Context, b Board, day time.Time, limit int) ([]Entry, error)
}

// boardKey scopes daily boards to the UTC day. Expedition boards are all-time.
func boardKey(b Board, day time.Time) string {
	if b == BoardDaily {
		return fmt.Sprintf("treesleuth:leaderboard:%s:%s", b, day.UTC().Format("2006-01-02"))
	}
	return "treesleuth:leaderboard:" + string(b)
}

const namesKey = "treesleuth:players"

// Redis keeps each board in a sorted set and player names in a hash.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Submit(ctx context.Context, b Board, day time.Time, playerID, name string, score int) error {
	if !b.Valid() {
		return ErrUnknownBoard
	}
	key := boardKey(b, day)

	pipe := r.client.TxPipeline()
	pipe.ZAddGT(ctx, key, redis.Z{Score: float64(score), Member: playerID})
	pipe.HSet(ctx, namesKey, playerID, name)
	if b == BoardDaily {
		pipe.Expire(ctx, key, dailyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("submitting score: %w", err)
	}
	return nil
}

func (r *Redis) Top(ctx context.Context, b Board, day time.Time, limit int) ([]Entry, error) {
	if !b.Valid() {
		return nil, ErrUnknownBoard
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	zs, err := r.client.ZRevRangeWithScores(ctx, boardKey(b, day), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading board: %w", err)
	}
	if len(zs) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i], _ = z.Member.(string)
	}
	names, err := r.client.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading names: %w", err)
	}

	entries := make([]Entry, len(zs))
	for i, z := range zs {
		name, _ := names[i].(string)
		entries[i] = Entry{Rank: i + 1, PlayerID: ids[i], Name: name, Score: int(z.Score)}
	}
	return entries, nil
}

func (r *Redis) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// Memory is the in-process fallback used when no Redis is configured.
type Memory struct {
	mu     sync.Mutex
	boards map[string]map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{boards: make(map[string]map[string]Entry)}
}

func (m *Memory) Submit(_ context.Context, b Board, day time.Time, playerID, name string, score int) error {
	if !b.Valid() {
		return ErrUnknownBoard
	}
	key := boardKey(b, day)

	m.mu.Lock()
	defer m.mu.Unlock()

	board, ok := m.boards[key]
	if !ok {
		board = make(map[string]Entry)
		m.boards[key] = board
	}
	e, ok := board[playerID]
	if !ok || score > e.Score {
		e.Score = score
	}
	e.PlayerID = playerID
	e.Name = name
	board[playerID] = e
	return nil
}

func (m *Memory) Top(_ context.Context, b Board, day time.Time, limit int) ([]Entry, error) {
	if !b.Valid() {
		return nil, ErrUnknownBoard
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	m.mu.Lock()
	entries := make([]Entry, 0, len(m.boards[boardKey(b, day)]))
	for _, e := range m.boards[boardKey(b, day)] {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	entries = entries[:min(limit, len(entries))]
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

var (
	_ Ranker = (*Redis)(nil)
	_ Ranker = (*Memory)(nil)
)
