// Package stats aggregates match history into per-player records and
// manages the roster and the override ledger behind the admin API.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/meister-server/internal/store"
)

const maxNameLength = 32

// Common errors for roster and override operations.
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidOverride = errors.New("override counts must not be negative")
)

// HeadToHead is one player's record against a single opponent.
type HeadToHead struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// PlayerStats is the aggregated record of one player.
type PlayerStats struct {
	Wins       int                    `json:"wins"`
	Losses     int                    `json:"losses"`
	Draws      int                    `json:"draws"`
	Games      int                    `json:"games"`
	Overridden bool                   `json:"overridden,omitempty"`
	Opponents  map[string]*HeadToHead `json:"opponents"`
}

func newPlayerStats() *PlayerStats {
	return &PlayerStats{Opponents: make(map[string]*HeadToHead)}
}

func (p *PlayerStats) against(name string) *HeadToHead {
	h, ok := p.Opponents[name]
	if !ok {
		h = &HeadToHead{}
		p.Opponents[name] = h
	}
	return h
}

// Aggregate computes stats for every roster user and every player in matches.
// An override replaces a player's win/loss/draw totals; head-to-head records
// always come from the history.
func Aggregate(users []string, matches []*store.MatchRecord, overrides []*store.StatOverride) map[string]*PlayerStats {
	out := make(map[string]*PlayerStats, len(users))
	get := func(name string) *PlayerStats {
		p, ok := out[name]
		if !ok {
			p = newPlayerStats()
			out[name] = p
		}
		return p
	}

	for _, u := range users {
		get(u)
	}

	for _, m := range matches {
		black, white := get(m.BlackPlayer), get(m.WhitePlayer)
		black.Games++
		white.Games++

		if m.Draw() {
			black.Draws++
			white.Draws++
			black.against(m.WhitePlayer).Draws++
			white.against(m.BlackPlayer).Draws++
			continue
		}
		winner, loser := get(m.WinnerName), get(m.LoserName)
		winner.Wins++
		loser.Losses++
		winner.against(m.LoserName).Wins++
		loser.against(m.WinnerName).Losses++
	}

	for _, o := range overrides {
		p := get(o.Name)
		p.Wins, p.Losses, p.Draws = o.Wins, o.Losses, o.Draws
		p.Games = o.Wins + o.Losses + o.Draws
		p.Overridden = true
	}
	return out
}

// Service exposes roster, history aggregation and overrides.
type Service struct {
	store store.Store
}

// New creates a new stats service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Stats aggregates the current history with overrides applied.
func (s *Service) Stats(ctx context.Context) (map[string]*PlayerStats, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	matches, err := s.store.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	overrides, err := s.store.ListOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return Aggregate(users, matches, overrides), nil
}

// History returns every recorded match.
func (s *Service) History(ctx context.Context) ([]*store.MatchRecord, error) {
	return s.store.ListMatches(ctx)
}

// Users returns the roster.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	return s.store.ListUsers(ctx)
}

// AddUser validates and appends a name, returning the updated roster.
func (s *Service) AddUser(ctx context.Context, name string) ([]string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddUser(ctx, name); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// RemoveUser deletes a name, returning the updated roster.
func (s *Service) RemoveUser(ctx context.Context, name string) ([]string, error) {
	if err := s.store.RemoveUser(ctx, name); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// Overrides lists the ledger.
func (s *Service) Overrides(ctx context.Context) ([]*store.StatOverride, error) {
	return s.store.ListOverrides(ctx)
}

// SetOverride stores an override for name.
func (s *Service) SetOverride(ctx context.Context, name string, wins, losses, draws int) (*store.StatOverride, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if wins < 0 || losses < 0 || draws < 0 {
		return nil, ErrInvalidOverride
	}
	o := &store.StatOverride{Name: name, Wins: wins, Losses: losses, Draws: draws}
	if err := s.store.PutOverride(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ClearOverride removes the override for name.
func (s *Service) ClearOverride(ctx context.Context, name string) error {
	return s.store.DeleteOverride(ctx, name)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
