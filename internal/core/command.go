package core

import "github.com/vovakirdan/meister-server/internal/othello"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandLogin binds a user name to the connection.
	CommandLogin CommandKind = iota
	// CommandListRooms asks for the lobby summary.
	CommandListRooms
	// CommandJoinRoom takes a seat or a spectator spot.
	CommandJoinRoom
	// CommandLeaveRoom leaves the current room.
	CommandLeaveRoom
	CommandSwapSides
	CommandUpdateSettings
	CommandStartGame
	CommandMakeMove
	// CommandAnalyze runs the Meister on an arbitrary position.
	CommandAnalyze
)

func (k CommandKind) String() string {
	switch k {
	case CommandLogin:
		return "login"
	case CommandListRooms:
		return "rooms"
	case CommandJoinRoom:
		return "join"
	case CommandLeaveRoom:
		return "leave"
	case CommandSwapSides:
		return "swap"
	case CommandUpdateSettings:
		return "settings"
	case CommandStartGame:
		return "start"
	case CommandMakeMove:
		return "move"
	case CommandAnalyze:
		return "analyze"
	}
	return "unknown"
}

// Command represents an action requested by a client. RequestID is echoed in
// the acknowledgement.
type Command struct {
	Kind      CommandKind
	RequestID string

	User     string
	Room     int
	Role     JoinRole
	Settings Settings
	Row      int
	Col      int
	Board    othello.Board
	Color    othello.Color
}
