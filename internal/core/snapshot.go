package core

import (
	"time"

	"github.com/vovakirdan/meister-server/internal/othello"
)

// RoomState is a point-in-time copy of a room, safe to hand to other goroutines.
type RoomState struct {
	ID           int
	Black        string
	White        string
	Spectators   []string
	// Disconnected holds seated players waiting out the reconnect grace period.
	Disconnected []string
	Settings     Settings
	Game         *GameState
}

// GameState is the copied view of a game.
type GameState struct {
	Board       othello.Board
	Turn        othello.Color
	BlackPlayer string
	WhitePlayer string
	Moves       []othello.Move
	LegalMoves  []othello.Point
	Pieces      othello.Counts
	PassCount   int
	Status      Status
	Result      *Result
	Clocks      *Clocks
	StartedAt   time.Time
}

// RoomSummary is the lobby view of a room.
type RoomSummary struct {
	ID         int
	Black      string
	White      string
	Spectators int
	Status     Status // empty when there is no game
	Settings   Settings
}

// Snapshot copies the state of one room.
func (m *Manager) Snapshot(roomID int) (*RoomState, error) {
	r, err := m.room(roomID)
	if err != nil {
		return nil, err
	}
	// pendingMu is never held together with a room lock.
	away := m.Disconnected(roomID)

	r.mu.Lock()
	defer r.mu.Unlock()

	st := &RoomState{
		ID:           r.ID,
		Black:        r.seats[othello.Black],
		White:        r.seats[othello.White],
		Spectators:   append([]string{}, r.spectators...),
		Disconnected: away,
		Settings:     r.settings,
	}
	if g := r.game; g != nil {
		gs := &GameState{
			Board:       g.Board,
			Turn:        g.Turn,
			BlackPlayer: g.BlackPlayer,
			WhitePlayer: g.WhitePlayer,
			Moves:       append([]othello.Move{}, g.Moves...),
			Pieces:      g.Board.Counts(),
			PassCount:   g.PassCount,
			Status:      g.Status,
			StartedAt:   g.StartedAt,
		}
		if g.Status == StatusPlaying {
			gs.LegalMoves = g.Board.LegalMoves(g.Turn)
		}
		if g.Result != nil {
			res := *g.Result
			gs.Result = &res
		}
		if g.clock != nil {
			c := g.clock.snapshot()
			gs.Clocks = &c
		}
		st.Game = gs
	}
	return st, nil
}

// Rooms returns the lobby summaries ordered by id.
func (m *Manager) Rooms() []RoomSummary {
	out := make([]RoomSummary, 0, len(m.ids))
	for _, id := range m.ids {
		r := m.rooms[id]
		r.mu.Lock()
		s := RoomSummary{
			ID:         r.ID,
			Black:      r.seats[othello.Black],
			White:      r.seats[othello.White],
			Spectators: len(r.spectators),
			Settings:   r.settings,
		}
		if r.game != nil {
			s.Status = r.game.Status
		}
		r.mu.Unlock()
		out = append(out, s)
	}
	return out
}
