package core

import "github.com/vovakirdan/meister-server/internal/meister"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventAck answers one command, successfully or with Error set.
	EventAck EventKind = iota
	// EventRoomState carries a full room snapshot to room members.
	EventRoomState
	// EventLobby carries the room summaries to every client.
	EventLobby
	// EventTimer carries clock updates for a timed game.
	EventTimer
	// EventOnlineUsers lists logged-in users.
	EventOnlineUsers
	// EventPlayerDisconnected tells the room a player dropped and has a grace period.
	EventPlayerDisconnected
	// EventKicked tells a connection its user logged in elsewhere.
	EventKicked
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	RequestID string
	Room      int
	User      string

	Ack    *Ack
	State  *RoomState
	Lobby  []RoomSummary
	Clocks *Clocks
	Users  []string
	Error  *CoreError
}

// Ack is the payload of a successful command.
type Ack struct {
	User          string
	Role          Role
	ReconnectRoom int
	Rooms         []RoomSummary
	Move          *MoveResult
	Analysis      *meister.Analysis
}
