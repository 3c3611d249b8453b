package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/meister-server/internal/core"
	"github.com/vovakirdan/meister-server/internal/meister"
	"github.com/vovakirdan/meister-server/internal/othello"
	"github.com/vovakirdan/meister-server/internal/proto"
)

// inboundToCommand decodes one frame. A non-nil *proto.Error is a client
// mistake answered in-band; a non-nil error is a broken frame.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	cmd := &core.Command{RequestID: inbound.ID}

	switch inbound.Type {
	case proto.InboundTypeLogin:
		var login proto.LoginData
		if err := decodeData(inbound.Data, &login); err != nil {
			return nil, nil, err
		}
		cmd.Kind = core.CommandLogin
		cmd.User = login.Name
	case proto.InboundTypeRooms:
		cmd.Kind = core.CommandListRooms
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		role, ok := core.ParseJoinRole(join.Role)
		if !ok {
			return nil, badRequest("role must be player or spectator"), nil
		}
		cmd.Kind = core.CommandJoinRoom
		cmd.Room = join.RoomID
		cmd.Role = role
	case proto.InboundTypeLeave:
		cmd.Kind = core.CommandLeaveRoom
	case proto.InboundTypeSwap:
		cmd.Kind = core.CommandSwapSides
	case proto.InboundTypeStart:
		cmd.Kind = core.CommandStartGame
	case proto.InboundTypeSettings:
		var settings proto.SettingsData
		if err := decodeData(inbound.Data, &settings); err != nil {
			return nil, nil, err
		}
		cmd.Kind = core.CommandUpdateSettings
		cmd.Settings = core.Settings{TimeLimit: settings.TimeLimit}
	case proto.InboundTypeMove:
		var move proto.MoveData
		if err := decodeData(inbound.Data, &move); err != nil {
			return nil, nil, err
		}
		cmd.Kind = core.CommandMakeMove
		cmd.Row, cmd.Col = move.Row, move.Col
	case proto.InboundTypeAnalyze:
		var analyze proto.AnalyzeData
		if err := decodeData(inbound.Data, &analyze); err != nil {
			return nil, nil, err
		}
		board, err := othello.BoardFromRows(analyze.Board)
		if err != nil {
			return nil, badRequest(err.Error()), nil
		}
		color, err := othello.ParseColor(string(analyze.Color))
		if err != nil {
			return nil, badRequest(err.Error()), nil
		}
		cmd.Kind = core.CommandAnalyze
		cmd.Board = board
		cmd.Color = color
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
	return cmd, nil, nil
}

// decodeData tolerates a missing payload so that {"type":"rooms"} style
// frames stay valid.
func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventAck:
		out := proto.Outbound{Type: proto.OutboundTypeAck, ID: event.RequestID}
		if event.Error != nil {
			out.Error = &proto.Error{Code: event.Error.Code, Msg: event.Error.Message}
			return out
		}
		if event.Ack != nil {
			out.Data = ackData(event.Ack)
		}
		return out
	case core.EventRoomState:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRoomState,
			Data:  roomState(event.State),
		}
	case core.EventLobby:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLobby,
			Data:  proto.LobbyData{Rooms: roomSummaries(event.Lobby)},
		}
	case core.EventTimer:
		data := proto.TimerData{Room: event.Room}
		if event.Clocks != nil {
			data.Clocks = clocks(*event.Clocks)
		}
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventTimer, Data: data}
	case core.EventOnlineUsers:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventOnlineUsers,
			Data:  proto.OnlineUsersData{Users: users},
		}
	case core.EventPlayerDisconnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPlayerDisconnected,
			Data:  proto.PlayerDisconnectedData{Room: event.Room, User: event.User},
		}
	case core.EventKicked:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventKicked,
			Data:  proto.KickedData{User: event.User},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func ackData(ack *core.Ack) proto.AckData {
	data := proto.AckData{
		User:          ack.User,
		Role:          string(ack.Role),
		ReconnectRoom: ack.ReconnectRoom,
	}
	if ack.Rooms != nil {
		data.Rooms = roomSummaries(ack.Rooms)
	}
	if m := ack.Move; m != nil {
		data.Move = &proto.MoveResult{
			Flipped:  points(m.Flipped),
			GameOver: m.GameOver,
			TimedOut: m.TimedOut,
		}
		if m.Passed.Valid() {
			data.Move.Passed = m.Passed.String()
		}
	}
	if ack.Analysis != nil {
		data.Analysis = analysis(ack.Analysis)
	}
	return data
}

func roomState(st *core.RoomState) *proto.RoomState {
	if st == nil {
		return nil
	}
	out := &proto.RoomState{
		ID:           st.ID,
		Black:        st.Black,
		White:        st.White,
		Spectators:   st.Spectators,
		Disconnected: st.Disconnected,
		TimeLimit:    st.Settings.TimeLimit,
	}
	if out.Spectators == nil {
		out.Spectators = []string{}
	}
	if g := st.Game; g != nil {
		out.Game = gameState(g)
	}
	return out
}

func gameState(g *core.GameState) *proto.GameState {
	out := &proto.GameState{
		Board:       g.Board.Rows(),
		Turn:        g.Turn.String(),
		BlackPlayer: g.BlackPlayer,
		WhitePlayer: g.WhitePlayer,
		Moves:       make([]proto.Move, 0, len(g.Moves)),
		LegalMoves:  points(g.LegalMoves),
		Pieces:      counts(g.Pieces),
		PassCount:   g.PassCount,
		Status:      string(g.Status),
		StartedAt:   millis(g.StartedAt),
	}
	for _, m := range g.Moves {
		out.Moves = append(out.Moves, proto.Move{
			Color:   m.Color.String(),
			Row:     m.Row,
			Col:     m.Col,
			Flipped: points(m.Flipped),
		})
	}
	if r := g.Result; r != nil {
		out.Result = &proto.Result{
			Reason:     string(r.Reason),
			WinnerName: r.WinnerName,
			LoserName:  r.LoserName,
			Draw:       r.Draw(),
			Pieces:     counts(r.Pieces),
			Moves:      r.Moves,
			FinishedAt: millis(r.FinishedAt),
		}
		if !r.Draw() {
			out.Result.Winner = r.Winner.String()
		}
	}
	if g.Clocks != nil {
		c := clocks(*g.Clocks)
		out.Clocks = &c
	}
	return out
}

func roomSummaries(rooms []core.RoomSummary) []proto.RoomSummary {
	out := make([]proto.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, proto.RoomSummary{
			ID:         r.ID,
			Black:      r.Black,
			White:      r.White,
			Spectators: r.Spectators,
			Status:     string(r.Status),
			TimeLimit:  r.Settings.TimeLimit,
		})
	}
	return out
}

func analysis(a *meister.Analysis) *proto.Analysis {
	out := &proto.Analysis{
		Moves:        make([]proto.MoveScore, 0, len(a.Moves)),
		Evaluation:   string(a.Evaluation),
		OverallScore: a.OverallScore,
	}
	if a.BestMove != nil {
		out.BestMove = &proto.Point{Row: a.BestMove.Row, Col: a.BestMove.Col}
	}
	for _, m := range a.Moves {
		out.Moves = append(out.Moves, proto.MoveScore{
			Move:    proto.Point{Row: m.Move.Row, Col: m.Move.Col},
			Score:   m.Score,
			Rank:    string(m.Rank),
			Reasons: m.Reasons,
		})
	}
	return out
}

func points(ps []othello.Point) []proto.Point {
	out := make([]proto.Point, 0, len(ps))
	for _, p := range ps {
		out = append(out, proto.Point{Row: p.Row, Col: p.Col})
	}
	return out
}

func counts(c othello.Counts) proto.Counts {
	return proto.Counts{Black: c.Black, White: c.White}
}

func clocks(c core.Clocks) proto.Clocks {
	return proto.Clocks{Black: c.Black.Milliseconds(), White: c.White.Milliseconds()}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
