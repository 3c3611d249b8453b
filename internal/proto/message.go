package proto

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Inbound is the envelope for messages coming from the client.
// ID is echoed back in the matching ack.
type Inbound struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeLogin    = "login"
	InboundTypeRooms    = "rooms"
	InboundTypeJoin     = "join"
	InboundTypeLeave    = "leave"
	InboundTypeSwap     = "swap"
	InboundTypeSettings = "settings"
	InboundTypeStart    = "start"
	InboundTypeMove     = "move"
	InboundTypeAnalyze  = "analyze"

	OutboundTypeAck   = "ack"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventRoomState          = "room_state"
	EventLobby              = "lobby"
	EventTimer              = "timer"
	EventOnlineUsers        = "online_users"
	EventPlayerDisconnected = "player_disconnected"
	EventKicked             = "kicked"
)

// LoginData binds a display name to the connection.
type LoginData struct {
	Name string `json:"name"`
}

// JoinData requests a seat (role "player", the default) or a spectator spot.
type JoinData struct {
	RoomID int    `json:"roomId"`
	Role   string `json:"role,omitempty"`
}

// SettingsData changes the per-side time limit in seconds, 0 for untimed.
type SettingsData struct {
	TimeLimit int `json:"timeLimit"`
}

// MoveData places a disc.
type MoveData struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// AnalyzeData asks the Meister about an arbitrary position.
type AnalyzeData struct {
	Board [][]int `json:"board"`
	Color Color   `json:"color"`
}

// Color accepts both the names ("black", "white") and the numeric codes 1 and 2.
type Color string

func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '"' {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*c = Color(strconv.Itoa(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Color(s)
	return nil
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// AckData is the payload of a successful command. Only the fields relevant
// to the command are set.
type AckData struct {
	User          string        `json:"user,omitempty"`
	Role          string        `json:"role,omitempty"`
	ReconnectRoom int           `json:"reconnectRoom,omitempty"`
	Rooms         []RoomSummary `json:"rooms,omitempty"`
	Move          *MoveResult   `json:"move,omitempty"`
	Analysis      *Analysis     `json:"analysis,omitempty"`
}

// Point is a board cell.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Counts is the number of discs per color.
type Counts struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Clocks holds remaining time per side in milliseconds.
type Clocks struct {
	Black int64 `json:"black"`
	White int64 `json:"white"`
}

// Move is one entry of the game history.
type Move struct {
	Color   string  `json:"color"`
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Flipped []Point `json:"flipped"`
}

// MoveResult answers a successful move.
type MoveResult struct {
	Flipped  []Point `json:"flipped"`
	Passed   string  `json:"passed,omitempty"`
	GameOver bool    `json:"gameOver"`
	TimedOut bool    `json:"timedOut,omitempty"`
}

// Result is the outcome of a finished game. Winner is empty on a draw.
type Result struct {
	Reason     string `json:"reason"`
	Winner     string `json:"winner,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
	LoserName  string `json:"loserName,omitempty"`
	Draw       bool   `json:"draw"`
	Pieces     Counts `json:"pieces"`
	Moves      int    `json:"moves"`
	FinishedAt int64  `json:"finishedAt"`
}

// GameState is the wire view of a game. Board rows use 0 empty, 1 black, 2 white.
type GameState struct {
	Board       [][]int `json:"board"`
	Turn        string  `json:"turn"`
	BlackPlayer string  `json:"blackPlayer"`
	WhitePlayer string  `json:"whitePlayer"`
	Moves       []Move  `json:"moves"`
	LegalMoves  []Point `json:"legalMoves"`
	Pieces      Counts  `json:"pieces"`
	PassCount   int     `json:"passCount"`
	Status      string  `json:"status"`
	Result      *Result `json:"result,omitempty"`
	Clocks      *Clocks `json:"clocks,omitempty"`
	StartedAt   int64   `json:"startedAt"`
}

// RoomState is sent to room members after every change.
type RoomState struct {
	ID           int        `json:"id"`
	Black        string     `json:"black"`
	White        string     `json:"white"`
	Spectators   []string   `json:"spectators"`
	Disconnected []string   `json:"disconnected,omitempty"`
	TimeLimit    int        `json:"timeLimit"`
	Game         *GameState `json:"game,omitempty"`
}

// RoomSummary is one lobby entry.
type RoomSummary struct {
	ID         int    `json:"id"`
	Black      string `json:"black"`
	White      string `json:"white"`
	Spectators int    `json:"spectators"`
	Status     string `json:"status,omitempty"`
	TimeLimit  int    `json:"timeLimit"`
}

// LobbyData lists every room.
type LobbyData struct {
	Rooms []RoomSummary `json:"rooms"`
}

// TimerData carries clocks of a running timed game.
type TimerData struct {
	Room   int    `json:"room"`
	Clocks Clocks `json:"clocks"`
}

// OnlineUsersData lists logged-in users.
type OnlineUsersData struct {
	Users []string `json:"users"`
}

// PlayerDisconnectedData announces a grace period for a dropped player.
type PlayerDisconnectedData struct {
	Room int    `json:"room"`
	User string `json:"user"`
}

// KickedData tells a connection its name was taken over.
type KickedData struct {
	User string `json:"user"`
}

// MoveScore is one analyzed candidate move.
type MoveScore struct {
	Move    Point    `json:"move"`
	Score   int      `json:"score"`
	Rank    string   `json:"rank"`
	Reasons []string `json:"reasons,omitempty"`
}

// Analysis is the Meister verdict for a position.
type Analysis struct {
	BestMove     *Point      `json:"bestMove"`
	Moves        []MoveScore `json:"analysis"`
	Evaluation   string      `json:"evaluation"`
	OverallScore int         `json:"overallScore"`
}
