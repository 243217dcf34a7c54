package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNotFound = errors.New("not found")

// Store keeps player documents as JSONB rows keyed by player and storage key.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

const (
	selectDocument = `SELECT json(data) FROM player_documents WHERE player_id = ? AND key = ?`
	upsertDocument = `INSERT INTO player_documents (player_id, key, data) VALUES (?, ?, jsonb(?))
		ON CONFLICT(player_id, key) DO UPDATE SET
		  data = excluded.data,
		  updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q querier, playerID, key string, dest any) error {
	var data string
	err := q.QueryRowContext(ctx, selectDocument, playerID, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func put(ctx context.Context, q querier, playerID, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, upsertDocument, playerID, key, string(data))
	return err
}

// Progress returns the player's progress. A missing or unreadable document
// yields the defaults.
func (s *Store) Progress(ctx context.Context, playerID string) Progress {
	return LoadProgress(ctx, s.For(playerID), s.logger)
}

// Settings returns the player's settings. A missing or unreadable document
// yields the defaults.
func (s *Store) Settings(ctx context.Context, playerID string) Settings {
	return LoadSettings(ctx, s.For(playerID), s.logger)
}

func (s *Store) SaveSettings(ctx context.Context, playerID string, st Settings) (Settings, error) {
	return SaveSettings(ctx, s.For(playerID), st)
}

// For returns the key-value view of one player's documents.
func (s *Store) For(playerID string) KV {
	return playerKV{db: s.db, playerID: playerID}
}

type playerKV struct {
	db       *sql.DB
	playerID string
}

func (kv playerKV) Get(ctx context.Context, key string) (string, bool, error) {
	var data string
	err := kv.db.QueryRowContext(ctx, selectDocument, kv.playerID, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

func (kv playerKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.db.ExecContext(ctx, upsertDocument, kv.playerID, key, value)
	return err
}

// Record folds a finished case into the player's progress and appends it to
// the result log, in one transaction.
func (s *Store) Record(ctx context.Context, playerID string, r Result) (Progress, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Progress{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p := DefaultProgress()
	if err := get(ctx, tx, playerID, KeyProgress, &p); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("reading progress, starting over", "player", playerID, "error", err)
		}
		p = DefaultProgress()
	}
	if p.Herbarium == nil {
		p.Herbarium = map[string]SpeciesMastery{}
	}

	p = p.Record(r)
	if err := put(ctx, tx, playerID, KeyProgress, p); err != nil {
		return Progress{}, fmt.Errorf("saving progress: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO case_results (player_id, mode, species_id, is_correct, score, played_on)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		playerID, string(r.Mode), r.SpeciesID, boolInt(r.Correct), r.Score, r.At.UTC().Format(dateLayout),
	)
	if err != nil {
		return Progress{}, fmt.Errorf("logging result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Progress{}, fmt.Errorf("committing: %w", err)
	}
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// HistoryEntry is one row of the result log.
type HistoryEntry struct {
	Mode      string `json:"mode"`
	SpeciesID string `json:"speciesId"`
	Correct   bool   `json:"isCorrect"`
	Score     int    `json:"score"`
	PlayedOn  string `json:"playedOn"`
}

// History returns the player's most recent results, newest first.
func (s *Store) History(ctx context.Context, playerID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT mode, species_id, is_correct, score, played_on
		 FROM case_results WHERE player_id = ?
		 ORDER BY id DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Mode, &e.SpeciesID, &e.Correct, &e.Score, &e.PlayedOn); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
