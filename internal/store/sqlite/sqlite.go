package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/meister-server/internal/store"
)

// Schema creates every table the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS roster (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS matches (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	room_id      INTEGER NOT NULL,
	black_player TEXT NOT NULL,
	white_player TEXT NOT NULL,
	winner_name  TEXT NOT NULL DEFAULT '',
	loser_name   TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL,
	black_count  INTEGER NOT NULL,
	white_count  INTEGER NOT NULL,
	moves        INTEGER NOT NULL DEFAULT 0,
	finished_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS stat_overrides (
	name       TEXT PRIMARY KEY,
	wins       INTEGER NOT NULL DEFAULT 0,
	losses     INTEGER NOT NULL DEFAULT 0,
	draws      INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL
);
`

// ApplySchema runs Schema against db.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema to an in-memory database.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; ":memory:" requires it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RosterStore implementation ====

// ListUsers returns roster names in insertion order.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM roster ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AddUser appends a name to the roster.
func (s *SQLiteStore) AddUser(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO roster (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrExists
		}
		return fmt.Errorf("insert roster: %w", err)
	}
	return nil
}

// RemoveUser deletes a name from the roster.
func (s *SQLiteStore) RemoveUser(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM roster WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete roster: %w", err)
	}
	return requireAffected(result)
}

// ==== HistoryStore implementation ====

// AppendMatch inserts a finished game.
func (s *SQLiteStore) AppendMatch(ctx context.Context, rec *store.MatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}

	query := `
		INSERT INTO matches (id, room_id, black_player, white_player, winner_name, loser_name,
			reason, black_count, white_count, moves, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.RoomID, rec.BlackPlayer, rec.WhitePlayer, rec.WinnerName, rec.LoserName,
		rec.Reason, rec.BlackCount, rec.WhiteCount, rec.Moves, rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// ListMatches returns the full history, oldest first.
func (s *SQLiteStore) ListMatches(ctx context.Context) ([]*store.MatchRecord, error) {
	query := `
		SELECT id, room_id, black_player, white_player, winner_name, loser_name,
			reason, black_count, white_count, moves, finished_at
		FROM matches
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []*store.MatchRecord
	for rows.Next() {
		var rec store.MatchRecord
		if err := rows.Scan(
			&rec.ID, &rec.RoomID, &rec.BlackPlayer, &rec.WhitePlayer, &rec.WinnerName, &rec.LoserName,
			&rec.Reason, &rec.BlackCount, &rec.WhiteCount, &rec.Moves, &rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// ==== OverrideStore implementation ====

// ListOverrides returns every override ordered by name.
func (s *SQLiteStore) ListOverrides(ctx context.Context) ([]*store.StatOverride, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, wins, losses, draws, updated_at
		FROM stat_overrides
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	var out []*store.StatOverride
	for rows.Next() {
		var o store.StatOverride
		if err := rows.Scan(&o.Name, &o.Wins, &o.Losses, &o.Draws, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// PutOverride inserts or replaces the override for o.Name.
func (s *SQLiteStore) PutOverride(ctx context.Context, o *store.StatOverride) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now()
	}
	query := `
		INSERT INTO stat_overrides (name, wins, losses, draws, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			wins = excluded.wins,
			losses = excluded.losses,
			draws = excluded.draws,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, o.Name, o.Wins, o.Losses, o.Draws, o.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// DeleteOverride removes the override for name.
func (s *SQLiteStore) DeleteOverride(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stat_overrides WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

var _ store.Store = (*SQLiteStore)(nil)
