package core

import (
	"time"

	"github.com/vovakirdan/meister-server/internal/othello"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Reason explains how a game ended.
type Reason string

const (
	ReasonComplete Reason = "complete"
	ReasonForfeit  Reason = "forfeit"
	ReasonTimeout  Reason = "timeout"
)

// Result is fixed once a game finishes. Winner is othello.Empty on a draw.
type Result struct {
	RoomID      int
	Reason      Reason
	Winner      othello.Color
	WinnerName  string
	LoserName   string
	Pieces      othello.Counts
	BlackPlayer string
	WhitePlayer string
	Moves       int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Draw reports whether the game ended level.
func (r Result) Draw() bool {
	return r.Winner == othello.Empty
}

// Clocks holds remaining time per side.
type Clocks struct {
	Black time.Duration
	White time.Duration
}

// gameClock charges elapsed wall time to whichever side holds the turn.
type gameClock struct {
	remaining [3]time.Duration
	lastTick  time.Time
}

func newGameClock(limit time.Duration, now time.Time) *gameClock {
	c := &gameClock{lastTick: now}
	c.remaining[othello.Black] = limit
	c.remaining[othello.White] = limit
	return c
}

// charge deducts the time since the last charge from color and reports
// whether that side is out of time.
func (c *gameClock) charge(color othello.Color, now time.Time) bool {
	c.remaining[color] -= now.Sub(c.lastTick)
	c.lastTick = now
	if c.remaining[color] <= 0 {
		c.remaining[color] = 0
		return true
	}
	return false
}

func (c *gameClock) snapshot() Clocks {
	return Clocks{Black: c.remaining[othello.Black], White: c.remaining[othello.White]}
}

// Game is the state of one match inside a room.
type Game struct {
	Board       othello.Board
	Turn        othello.Color
	BlackPlayer string
	WhitePlayer string
	Moves       []othello.Move
	PassCount   int
	Status      Status
	Result      *Result
	StartedAt   time.Time

	clock *gameClock
}

func newGame(black, white string, settings Settings, now time.Time) *Game {
	g := &Game{
		Board:       othello.InitialBoard(),
		Turn:        othello.Black,
		BlackPlayer: black,
		WhitePlayer: white,
		Status:      StatusPlaying,
		StartedAt:   now,
	}
	if settings.TimeLimit > 0 {
		g.clock = newGameClock(time.Duration(settings.TimeLimit)*time.Second, now)
	}
	return g
}

func (g *Game) colorOf(user string) othello.Color {
	switch user {
	case "":
		return othello.Empty
	case g.BlackPlayer:
		return othello.Black
	case g.WhitePlayer:
		return othello.White
	}
	return othello.Empty
}

func (g *Game) playerName(c othello.Color) string {
	switch c {
	case othello.Black:
		return g.BlackPlayer
	case othello.White:
		return g.WhitePlayer
	}
	return ""
}

// MoveResult is returned to the mover.
type MoveResult struct {
	Flipped []othello.Point
	// Passed is the side that had to pass after this move, if any.
	Passed   othello.Color
	GameOver bool
	TimedOut bool
}

// TickResult reports the clock state of a timed game after one tick.
type TickResult struct {
	Clocks  Clocks
	TimeOut bool
	Loser   othello.Color
}
