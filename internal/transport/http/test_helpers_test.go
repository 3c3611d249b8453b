package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/auth"
	"github.com/vovakirdan/meister-server/internal/config"
	"github.com/vovakirdan/meister-server/internal/core"
	"github.com/vovakirdan/meister-server/internal/meister"
	"github.com/vovakirdan/meister-server/internal/proto"
	"github.com/vovakirdan/meister-server/internal/service/stats"
	"github.com/vovakirdan/meister-server/internal/store"
	"github.com/vovakirdan/meister-server/internal/store/sqlite"
)

const testAdminPassword = "administrator"

type testEnv struct {
	server *httptest.Server
	store  store.Store
	auth   *auth.Service
}

// startTestServer runs a hub and the full router over an in-memory store.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authService, err := auth.NewService(testAdminPassword, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(core.HubOptions{
		Analyzer: meister.NewAnalyzer(meister.AnalyzerConfig{Depth: 2}, &disabledLogger),
		Logger:   &disabledLogger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.RateLimit = 0
	server := NewServer(hub, authService, stats.New(st), &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st, auth: authService}
}

// outbound mirrors proto.Outbound with the payload left raw.
type outbound struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dial(t *testing.T, env *testEnv) (*websocket.Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := strings.Replace(env.server.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn, ctx
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ, id string, data any) {
	t.Helper()

	in := proto.Inbound{Type: typ, ID: id}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s: %v", typ, err)
		}
		in.Data = raw
	}
	if err := wsjson.Write(ctx, conn, in); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips frames until match accepts one.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(outbound) bool) outbound {
	t.Helper()

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(out) {
			return out
		}
	}
}

func readAck(t *testing.T, ctx context.Context, conn *websocket.Conn, id string) outbound {
	t.Helper()
	return readUntil(t, ctx, conn, func(o outbound) bool {
		return o.Type == proto.OutboundTypeAck && o.ID == id
	})
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) outbound {
	t.Helper()
	return readUntil(t, ctx, conn, func(o outbound) bool {
		return o.Type == proto.OutboundTypeEvent && o.Event == name
	})
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}
