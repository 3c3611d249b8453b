package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/meister-server/internal/othello"
)

type finishLog struct {
	mu      sync.Mutex
	results []Result
}

func (f *finishLog) record(r Result) {
	f.mu.Lock()
	f.results = append(f.results, r)
	f.mu.Unlock()
}

func (f *finishLog) all() []Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Result(nil), f.results...)
}

func newTestManager(t *testing.T) (*Manager, *clock.Mock, *finishLog) {
	t.Helper()
	mock := clock.NewMock()
	finished := &finishLog{}
	m := NewManager(ManagerOptions{Clock: mock, OnFinish: finished.record})
	return m, mock, finished
}

func mustJoin(t *testing.T, m *Manager, room int, user string, want JoinRole, expect Role) {
	t.Helper()
	role, err := m.Join(room, user, want)
	if err != nil {
		t.Fatalf("join %s: %v", user, err)
	}
	if role != expect {
		t.Fatalf("join %s: expected %s, got %s", user, expect, role)
	}
}

func startGame(t *testing.T, m *Manager, room int) {
	t.Helper()
	mustJoin(t, m, room, "alice", JoinAsPlayer, RoleBlack)
	mustJoin(t, m, room, "bob", JoinAsPlayer, RoleWhite)
	if err := m.Start(room); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestJoinFillsSeatsInOrder(t *testing.T) {
	m, _, _ := newTestManager(t)

	mustJoin(t, m, 1, "alice", JoinAsPlayer, RoleBlack)
	mustJoin(t, m, 1, "bob", JoinAsPlayer, RoleWhite)
	mustJoin(t, m, 1, "carol", JoinAsPlayer, RoleSpectator)
	mustJoin(t, m, 1, "dave", JoinAsSpectator, RoleSpectator)
	// Seated users keep their seat on a repeated join.
	mustJoin(t, m, 1, "alice", JoinAsSpectator, RoleBlack)
	mustJoin(t, m, 1, "carol", JoinAsSpectator, RoleSpectator)

	st, err := m.Snapshot(1)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if st.Black != "alice" || st.White != "bob" {
		t.Fatalf("unexpected seats: %+v", st)
	}
	if len(st.Spectators) != 2 || st.Spectators[0] != "carol" || st.Spectators[1] != "dave" {
		t.Fatalf("unexpected spectators: %v", st.Spectators)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Join(9, "alice", JoinAsPlayer); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room_not_found, got %v", err)
	}
	if _, err := m.Join(1, "", JoinAsPlayer); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad_request for empty name, got %v", err)
	}
}

func TestJoinDuringGameSpectates(t *testing.T) {
	m, _, _ := newTestManager(t)
	startGame(t, m, 1)

	if err := m.Leave(1, "bob"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	// Game is finished now, so the empty seat can be taken and the old game is discarded.
	mustJoin(t, m, 1, "carol", JoinAsPlayer, RoleWhite)
	st, _ := m.Snapshot(1)
	if st.Game != nil {
		t.Fatalf("finished game should be discarded when a seat is filled")
	}

	if err := m.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustJoin(t, m, 1, "dave", JoinAsPlayer, RoleSpectator)
}

func TestStartPreconditions(t *testing.T) {
	m, _, _ := newTestManager(t)

	mustJoin(t, m, 1, "alice", JoinAsPlayer, RoleBlack)
	if err := m.Start(1); !errors.Is(err, ErrNeedTwoPlayers) {
		t.Fatalf("expected need_two_players, got %v", err)
	}
	mustJoin(t, m, 1, "bob", JoinAsPlayer, RoleWhite)
	if err := m.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(1); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected already_in_progress, got %v", err)
	}
}

func TestOpeningMove(t *testing.T) {
	m, _, _ := newTestManager(t)
	startGame(t, m, 1)

	res, err := m.Move(1, "alice", 2, 3)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(res.Flipped) != 1 || res.Flipped[0] != (othello.Point{Row: 3, Col: 3}) {
		t.Fatalf("expected only (3,3) flipped, got %v", res.Flipped)
	}
	if res.GameOver || res.Passed != othello.Empty {
		t.Fatalf("unexpected result: %+v", res)
	}

	st, _ := m.Snapshot(1)
	g := st.Game
	if g.Turn != othello.White || g.Pieces.Black != 4 || g.Pieces.White != 1 {
		t.Fatalf("unexpected game state: turn=%s pieces=%+v", g.Turn, g.Pieces)
	}
	if len(g.Moves) != 1 || len(g.LegalMoves) == 0 {
		t.Fatalf("expected one recorded move and white legal moves, got %+v", g)
	}
}

func TestMoveRejections(t *testing.T) {
	m, _, _ := newTestManager(t)
	mustJoin(t, m, 1, "alice", JoinAsPlayer, RoleBlack)

	if _, err := m.Move(1, "alice", 2, 3); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected no_active_game, got %v", err)
	}

	mustJoin(t, m, 1, "bob", JoinAsPlayer, RoleWhite)
	mustJoin(t, m, 1, "carol", JoinAsSpectator, RoleSpectator)
	if err := m.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}

	tests := []struct {
		name     string
		user     string
		row, col int
		want     error
	}{
		{"white out of turn", "bob", 2, 4, ErrNotYourTurn},
		{"spectator", "carol", 2, 3, ErrNotYourTurn},
		{"no flips", "alice", 0, 0, ErrInvalidMove},
		{"occupied", "alice", 3, 3, ErrInvalidMove},
		{"off board", "alice", 8, 0, ErrInvalidMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Move(1, tt.user, tt.row, tt.col); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	st, _ := m.Snapshot(1)
	if len(st.Game.Moves) != 0 || st.Game.Board != othello.InitialBoard() {
		t.Fatalf("rejected moves must not change the game")
	}
}

func TestLeaveDuringGameForfeits(t *testing.T) {
	m, _, finished := newTestManager(t)
	startGame(t, m, 1)

	if _, err := m.Move(1, "alice", 2, 3); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := m.Leave(1, "alice"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := m.Leave(1, "bob"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	results := finished.all()
	if len(results) != 1 {
		t.Fatalf("expected exactly one finished result, got %d", len(results))
	}
	r := results[0]
	if r.Reason != ReasonForfeit || r.Winner != othello.White || r.WinnerName != "bob" || r.LoserName != "alice" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.BlackPlayer != "alice" || r.WhitePlayer != "bob" {
		t.Fatalf("result should keep the seated names: %+v", r)
	}
	if r.Pieces.Black != 4 || r.Pieces.White != 1 || r.Moves != 1 {
		t.Fatalf("unexpected final counts: %+v", r)
	}

	st, _ := m.Snapshot(1)
	if st.Black != "" || st.White != "" || st.Game.Status != StatusFinished {
		t.Fatalf("unexpected room after forfeit: %+v", st)
	}
}

func TestSwapAndSettingsBetweenGames(t *testing.T) {
	m, _, _ := newTestManager(t)
	mustJoin(t, m, 1, "alice", JoinAsPlayer, RoleBlack)
	mustJoin(t, m, 1, "bob", JoinAsPlayer, RoleWhite)

	if err := m.Swap(1); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if err := m.UpdateSettings(1, Settings{TimeLimit: 300}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if err := m.UpdateSettings(1, Settings{TimeLimit: -1}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad_request for negative limit, got %v", err)
	}
	if err := m.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}

	st, _ := m.Snapshot(1)
	if st.Game.BlackPlayer != "bob" || st.Game.WhitePlayer != "alice" {
		t.Fatalf("swap not applied: %+v", st.Game)
	}
	if st.Game.Clocks == nil || st.Game.Clocks.Black != 300*time.Second {
		t.Fatalf("expected 300s clocks, got %+v", st.Game.Clocks)
	}

	if err := m.Swap(1); !errors.Is(err, ErrCannotSwap) {
		t.Fatalf("expected cannot_swap, got %v", err)
	}
	if err := m.UpdateSettings(1, Settings{}); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("expected game_in_progress, got %v", err)
	}
}

func TestClockChargesTurnHolder(t *testing.T) {
	m, mock, _ := newTestManager(t)
	if err := m.UpdateSettings(1, Settings{TimeLimit: 60}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	startGame(t, m, 1)

	mock.Add(5 * time.Second)
	if _, err := m.Move(1, "alice", 2, 3); err != nil {
		t.Fatalf("move: %v", err)
	}
	mock.Add(3 * time.Second)
	tick, ok := m.Tick(1)
	if !ok || tick.TimeOut {
		t.Fatalf("expected a running clock, got %+v", tick)
	}
	if tick.Clocks.Black != 55*time.Second || tick.Clocks.White != 57*time.Second {
		t.Fatalf("unexpected clocks after tick: %+v", tick.Clocks)
	}
	mock.Add(2 * time.Second)
	if _, err := m.Move(1, "bob", 2, 2); err != nil {
		t.Fatalf("move: %v", err)
	}

	st, _ := m.Snapshot(1)
	c := st.Game.Clocks
	if c.Black != 55*time.Second || c.White != 55*time.Second {
		t.Fatalf("expected 55s each, got %+v", c)
	}
	if spent := 2*60*time.Second - c.Black - c.White; spent != 10*time.Second {
		t.Fatalf("time charged %v does not match elapsed 10s", spent)
	}
}

func TestTickWithoutClock(t *testing.T) {
	m, _, _ := newTestManager(t)
	startGame(t, m, 1)
	if _, ok := m.Tick(1); ok {
		t.Fatalf("untimed games must not tick")
	}
	if _, ok := m.Tick(2); ok {
		t.Fatalf("empty rooms must not tick")
	}
}

func TestTickTimeout(t *testing.T) {
	m, mock, finished := newTestManager(t)
	if err := m.UpdateSettings(1, Settings{TimeLimit: 5}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	startGame(t, m, 1)

	mock.Add(6 * time.Second)
	tick, ok := m.Tick(1)
	if !ok || !tick.TimeOut || tick.Loser != othello.Black || tick.Clocks.Black != 0 {
		t.Fatalf("expected black timeout, got %+v", tick)
	}
	results := finished.all()
	if len(results) != 1 || results[0].Reason != ReasonTimeout || results[0].WinnerName != "bob" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if _, ok := m.Tick(1); ok {
		t.Fatalf("finished games must not tick")
	}
}

func TestMoveAfterClockExpired(t *testing.T) {
	m, mock, _ := newTestManager(t)
	if err := m.UpdateSettings(1, Settings{TimeLimit: 5}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	startGame(t, m, 1)

	mock.Add(6 * time.Second)
	res, err := m.Move(1, "alice", 2, 3)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !res.GameOver || !res.TimedOut {
		t.Fatalf("expected timeout result, got %+v", res)
	}

	st, _ := m.Snapshot(1)
	if st.Game.Board != othello.InitialBoard() || st.Game.Result.Reason != ReasonTimeout || st.Game.Result.Winner != othello.White {
		t.Fatalf("late move must not be applied: %+v", st.Game)
	}
}

// passBoard leaves white without a move while black still has one.
func passBoard() othello.Board {
	var b othello.Board
	for c := 0; c < 3; c++ {
		b[3][c] = othello.Black
		b[5][c] = othello.Black
	}
	b[3][3] = othello.White
	b[5][3] = othello.White
	return b
}

func TestPassKeepsTurnThenComplete(t *testing.T) {
	m, _, finished := newTestManager(t)
	startGame(t, m, 1)
	m.rooms[1].game.Board = passBoard()

	res, err := m.Move(1, "alice", 3, 4)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Passed != othello.White || res.GameOver {
		t.Fatalf("expected white to pass, got %+v", res)
	}
	st, _ := m.Snapshot(1)
	if st.Game.Turn != othello.Black || st.Game.PassCount != 1 {
		t.Fatalf("turn must stay with black: turn=%s passes=%d", st.Game.Turn, st.Game.PassCount)
	}

	res, err = m.Move(1, "alice", 5, 4)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !res.GameOver {
		t.Fatalf("expected game over once white has no discs")
	}
	results := finished.all()
	if len(results) != 1 || results[0].Reason != ReasonComplete || results[0].Winner != othello.Black {
		t.Fatalf("unexpected result: %+v", results)
	}
	st, _ = m.Snapshot(1)
	if st.Game.PassCount != 0 || st.Game.LegalMoves != nil {
		t.Fatalf("unexpected final state: %+v", st.Game)
	}
}

func TestReconnectWithinGrace(t *testing.T) {
	m, mock, finished := newTestManager(t)
	startGame(t, m, 1)

	m.HandleDisconnect("alice", 1)
	mock.Add(29 * time.Second)
	if got := m.Disconnected(1); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("expected alice pending, got %v", got)
	}
	if got := m.Disconnected(2); len(got) != 0 {
		t.Fatalf("room 2 has nobody pending, got %v", got)
	}
	st, _ := m.Snapshot(1)
	if len(st.Disconnected) != 1 || st.Disconnected[0] != "alice" || st.Black != "alice" {
		t.Fatalf("snapshot should mark alice as reconnecting: %+v", st)
	}

	room, ok := m.HandleReconnect("alice")
	if !ok || room != 1 {
		t.Fatalf("expected reconnect to room 1, got %d %v", room, ok)
	}
	mock.Add(5 * time.Second)

	if !m.IsActivePlayer(1, "alice") {
		t.Fatalf("alice should still be playing")
	}
	if len(finished.all()) != 0 {
		t.Fatalf("no game should have finished")
	}
	if _, ok := m.HandleReconnect("alice"); ok {
		t.Fatalf("second reconnect must find nothing pending")
	}
	st, _ = m.Snapshot(1)
	if st.Disconnected != nil {
		t.Fatalf("marker should clear after reconnect: %v", st.Disconnected)
	}
}

func TestGraceExpiryForfeits(t *testing.T) {
	m, mock, finished := newTestManager(t)
	expired := make(chan string, 1)
	m.setExpireHook(func(_ int, user string) { expired <- user })
	startGame(t, m, 1)

	m.HandleDisconnect("alice", 1)
	mock.Add(31 * time.Second)

	select {
	case user := <-expired:
		if user != "alice" {
			t.Fatalf("unexpected expiry for %s", user)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("grace period did not expire")
	}

	results := finished.all()
	if len(results) != 1 || results[0].Reason != ReasonForfeit || results[0].WinnerName != "bob" {
		t.Fatalf("unexpected results: %+v", results)
	}
	st, _ := m.Snapshot(1)
	if st.Black != "" {
		t.Fatalf("alice should have lost the seat")
	}
	if _, ok := m.HandleReconnect("alice"); ok {
		t.Fatalf("expired grace period must not allow reconnect")
	}
}

func TestRoomsSummary(t *testing.T) {
	m, _, _ := newTestManager(t)
	startGame(t, m, 2)
	mustJoin(t, m, 2, "carol", JoinAsSpectator, RoleSpectator)

	rooms := m.Rooms()
	if len(rooms) != DefaultRooms {
		t.Fatalf("expected %d rooms, got %d", DefaultRooms, len(rooms))
	}
	r := rooms[1]
	if r.ID != 2 || r.Black != "alice" || r.White != "bob" || r.Spectators != 1 || r.Status != StatusPlaying {
		t.Fatalf("unexpected summary: %+v", r)
	}
	if rooms[0].Status != "" {
		t.Fatalf("room 1 has no game, got %s", rooms[0].Status)
	}
}
