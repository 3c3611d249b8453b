package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a named record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when adding a record that is already present.
	ErrExists = errors.New("already exists")
)

// MatchRecord is one finished game in the append-only history.
// WinnerName and LoserName are empty for a draw.
type MatchRecord struct {
	ID          string
	RoomID      int
	BlackPlayer string
	WhitePlayer string
	WinnerName  string
	LoserName   string
	Reason      string
	BlackCount  int
	WhiteCount  int
	Moves       int
	FinishedAt  time.Time
}

// Draw reports whether the match ended level.
func (m *MatchRecord) Draw() bool {
	return m.WinnerName == ""
}

// StatOverride replaces the aggregated win/loss/draw numbers for one user.
type StatOverride struct {
	Name      string
	Wins      int
	Losses    int
	Draws     int
	UpdatedAt time.Time
}

// RosterStore handles the ordered list of registered player names.
type RosterStore interface {
	// ListUsers returns names in insertion order.
	ListUsers(ctx context.Context) ([]string, error)

	// AddUser appends a name. Returns ErrExists for duplicates.
	AddUser(ctx context.Context, name string) error

	// RemoveUser deletes a name. Returns ErrNotFound if absent.
	RemoveUser(ctx context.Context, name string) error
}

// HistoryStore handles finished-game records.
type HistoryStore interface {
	// AppendMatch persists a record. ID and FinishedAt are filled when empty.
	AppendMatch(ctx context.Context, rec *MatchRecord) error

	// ListMatches returns every record, oldest first.
	ListMatches(ctx context.Context) ([]*MatchRecord, error)
}

// OverrideStore handles the stat override ledger keyed by user name.
type OverrideStore interface {
	ListOverrides(ctx context.Context) ([]*StatOverride, error)
	PutOverride(ctx context.Context, o *StatOverride) error
	// DeleteOverride returns ErrNotFound if no override exists.
	DeleteOverride(ctx context.Context, name string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	RosterStore
	HistoryStore
	OverrideStore

	// Close releases the underlying connection.
	Close() error
}
