package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/meister-server/internal/othello"
	"github.com/vovakirdan/meister-server/internal/proto"
)

// inbound mirrors proto.Outbound with the payload left raw for decoding per event.
type inbound struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	user := flag.String("user", "tester", "name to log in with")
	room := flag.Int("room", 1, "room to join")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ, id string, data any) error {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, ID: id, Data: raw}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeLogin, "login", proto.LoginData{Name: *user}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeJoin, "join", proto.JoinData{RoomID: *room, Role: "spectator"}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeAnalyze, "analyze", proto.AnalyzeData{
		Board: othello.InitialBoard().Rows(),
		Color: "black",
	}); err != nil {
		return err
	}

	for {
		var msg inbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received: type=%s", msg.Type)
		if msg.Event != "" {
			fmt.Printf(" event=%s", msg.Event)
		}
		if msg.ID != "" {
			fmt.Printf(" id=%s", msg.ID)
		}
		fmt.Println()

		if msg.Error != nil {
			return fmt.Errorf("%s failed: %s (%s)", msg.ID, msg.Error.Msg, msg.Error.Code)
		}

		switch {
		case msg.Event == proto.EventRoomState:
			var st proto.RoomState
			if err := json.Unmarshal(msg.Data, &st); err == nil {
				fmt.Printf("Room %d: black=%q white=%q spectators=%v\n", st.ID, st.Black, st.White, st.Spectators)
			}
		case msg.Type == proto.OutboundTypeAck && msg.ID == "analyze":
			var ack proto.AckData
			if err := json.Unmarshal(msg.Data, &ack); err != nil || ack.Analysis == nil {
				return fmt.Errorf("unexpected analysis payload: %s", msg.Data)
			}
			a := ack.Analysis
			if a.BestMove != nil {
				fmt.Printf("Meister: best=(%d,%d) evaluation=%s score=%d\n", a.BestMove.Row, a.BestMove.Col, a.Evaluation, a.OverallScore)
			}
			for _, m := range a.Moves {
				fmt.Printf("  (%d,%d) score=%d rank=%s %v\n", m.Move.Row, m.Move.Col, m.Score, m.Rank, m.Reasons)
			}
			return nil
		}
	}
}
