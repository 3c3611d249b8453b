package core

import (
	"sync"

	"github.com/vovakirdan/meister-server/internal/othello"
)

// Role is the position a user holds in a room.
type Role string

const (
	RoleBlack     Role = "black"
	RoleWhite     Role = "white"
	RoleSpectator Role = "spectator"
)

// JoinRole is what the user asked for when joining.
type JoinRole string

const (
	JoinAsPlayer    JoinRole = "player"
	JoinAsSpectator JoinRole = "spectator"
)

// ParseJoinRole maps wire values onto a JoinRole, defaulting to player.
func ParseJoinRole(s string) (JoinRole, bool) {
	switch s {
	case "", string(JoinAsPlayer):
		return JoinAsPlayer, true
	case string(JoinAsSpectator):
		return JoinAsSpectator, true
	default:
		return "", false
	}
}

func roleFor(c othello.Color) Role {
	switch c {
	case othello.Black:
		return RoleBlack
	case othello.White:
		return RoleWhite
	default:
		return RoleSpectator
	}
}

// Settings are per-room game options. TimeLimit is seconds per player, 0 means unlimited.
type Settings struct {
	TimeLimit int
}

// Room is one of the fixed lobby rooms. All fields are guarded by mu.
type Room struct {
	ID int

	mu         sync.Mutex
	seats      [3]string // indexed by othello.Color
	spectators []string
	settings   Settings
	game       *Game
}

func newRoom(id int) *Room {
	return &Room{ID: id}
}

func (r *Room) seatOf(user string) othello.Color {
	switch user {
	case "":
		return othello.Empty
	case r.seats[othello.Black]:
		return othello.Black
	case r.seats[othello.White]:
		return othello.White
	}
	return othello.Empty
}

func (r *Room) addSpectator(user string) {
	for _, s := range r.spectators {
		if s == user {
			return
		}
	}
	r.spectators = append(r.spectators, user)
}

func (r *Room) removeSpectator(user string) bool {
	for i, s := range r.spectators {
		if s == user {
			r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) playing() bool {
	return r.game != nil && r.game.Status == StatusPlaying
}
