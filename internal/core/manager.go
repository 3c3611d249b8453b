package core

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/othello"
)

const (
	// DefaultRooms is the size of the fixed room pool.
	DefaultRooms = 4
	// DefaultGracePeriod is how long a disconnected player keeps their seat.
	DefaultGracePeriod = 30 * time.Second
	// DefaultMaxTimeLimit caps per-side time limits, in seconds.
	DefaultMaxTimeLimit = 3600
)

// ManagerOptions configures a Manager. Zero values pick defaults.
type ManagerOptions struct {
	Rooms        int
	GracePeriod  time.Duration
	MaxTimeLimit int
	Clock        clock.Clock
	Logger       *zerolog.Logger
	// OnFinish runs with the room lock held; it must not call back into the Manager.
	OnFinish func(Result)
}

type pendingDisconnect struct {
	roomID  int
	expires time.Time
	timer   *clock.Timer
}

// Manager owns the room pool and every game in it.
type Manager struct {
	rooms        map[int]*Room
	ids          []int
	clock        clock.Clock
	grace        time.Duration
	maxTimeLimit int
	log          *zerolog.Logger
	onFinish     func(Result)

	pendingMu sync.Mutex
	pending   map[string]*pendingDisconnect

	expireMu sync.RWMutex
	onExpire func(roomID int, user string)
}

// NewManager creates the fixed rooms 1..opts.Rooms.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Rooms <= 0 {
		opts.Rooms = DefaultRooms
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.MaxTimeLimit <= 0 {
		opts.MaxTimeLimit = DefaultMaxTimeLimit
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	m := &Manager{
		rooms:        make(map[int]*Room, opts.Rooms),
		clock:        opts.Clock,
		grace:        opts.GracePeriod,
		maxTimeLimit: opts.MaxTimeLimit,
		log:          opts.Logger,
		onFinish:     opts.OnFinish,
		pending:      make(map[string]*pendingDisconnect),
	}
	for id := 1; id <= opts.Rooms; id++ {
		m.rooms[id] = newRoom(id)
		m.ids = append(m.ids, id)
	}
	return m
}

// RoomIDs returns the room ids in ascending order.
func (m *Manager) RoomIDs() []int {
	return append([]int(nil), m.ids...)
}

func (m *Manager) room(id int) (*Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// setExpireHook registers the callback run after a grace period expires.
func (m *Manager) setExpireHook(fn func(roomID int, user string)) {
	m.expireMu.Lock()
	m.onExpire = fn
	m.expireMu.Unlock()
}

// Join seats user as a player or spectator and returns the resulting role.
func (m *Manager) Join(roomID int, user string, want JoinRole) (Role, error) {
	if user == "" {
		return "", ErrBadRequest
	}
	r, err := m.room(roomID)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A seated user keeps their seat whatever they ask for.
	if seat := r.seatOf(user); seat != othello.Empty {
		r.removeSpectator(user)
		return roleFor(seat), nil
	}
	if want == JoinAsSpectator || r.playing() {
		r.addSpectator(user)
		return RoleSpectator, nil
	}
	for _, c := range []othello.Color{othello.Black, othello.White} {
		if r.seats[c] == "" {
			if r.game != nil {
				r.game = nil
			}
			r.seats[c] = user
			r.removeSpectator(user)
			m.log.Debug().Int("room", roomID).Str("user", user).Str("seat", c.String()).Msg("player seated")
			return roleFor(c), nil
		}
	}
	r.addSpectator(user)
	return RoleSpectator, nil
}

// Leave removes user from the room. Vacating a seat during play forfeits.
func (m *Manager) Leave(roomID int, user string) error {
	r, err := m.room(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seat := r.seatOf(user); seat != othello.Empty {
		r.seats[seat] = ""
		if r.playing() {
			m.finish(r, ReasonForfeit, seat.Opponent())
		}
	}
	r.removeSpectator(user)
	return nil
}

// Swap exchanges the two seats.
func (m *Manager) Swap(roomID int) error {
	r, err := m.room(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing() {
		return ErrCannotSwap
	}
	r.seats[othello.Black], r.seats[othello.White] = r.seats[othello.White], r.seats[othello.Black]
	r.game = nil
	return nil
}

// UpdateSettings replaces the room settings between games.
func (m *Manager) UpdateSettings(roomID int, s Settings) error {
	r, err := m.room(roomID)
	if err != nil {
		return err
	}
	if s.TimeLimit < 0 || s.TimeLimit > m.maxTimeLimit {
		return ErrBadRequest
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing() {
		return ErrGameInProgress
	}
	r.settings = s
	return nil
}

// Start begins a new game between the seated players.
func (m *Manager) Start(roomID int) error {
	r, err := m.room(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seats[othello.Black] == "" || r.seats[othello.White] == "" {
		return ErrNeedTwoPlayers
	}
	if r.playing() {
		return ErrAlreadyInProgress
	}
	r.game = newGame(r.seats[othello.Black], r.seats[othello.White], r.settings, m.clock.Now())
	m.log.Info().
		Int("room", roomID).
		Str("black", r.game.BlackPlayer).
		Str("white", r.game.WhitePlayer).
		Int("time_limit", r.settings.TimeLimit).
		Msg("game started")
	return nil
}

// Move validates and applies a move for user.
func (m *Manager) Move(roomID int, user string, row, col int) (*MoveResult, error) {
	r, err := m.room(roomID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.playing() {
		return nil, ErrNoActiveGame
	}
	g := r.game
	color := g.colorOf(user)
	if color == othello.Empty || color != g.Turn {
		return nil, ErrNotYourTurn
	}
	next, flipped, ok := g.Board.Apply(color, row, col)
	if !ok {
		return nil, ErrInvalidMove
	}

	now := m.clock.Now()
	if g.clock != nil && g.clock.charge(color, now) {
		m.finish(r, ReasonTimeout, color.Opponent())
		return &MoveResult{GameOver: true, TimedOut: true}, nil
	}

	g.Board = next
	g.Moves = append(g.Moves, othello.Move{Color: color, Row: row, Col: col, Flipped: flipped})
	g.PassCount = 0
	res := &MoveResult{Flipped: flipped}

	if next.IsTerminal() {
		m.finish(r, ReasonComplete, next.Winner())
		res.GameOver = true
		return res, nil
	}

	opp := color.Opponent()
	if !next.HasMove(opp) {
		g.PassCount++
		res.Passed = opp
		return res, nil
	}
	g.Turn = opp
	if g.clock != nil {
		g.clock.lastTick = now
	}
	return res, nil
}

// Tick charges elapsed time to the side on turn. The bool is false when the
// room has no clocked game in progress.
func (m *Manager) Tick(roomID int) (TickResult, bool) {
	r, err := m.room(roomID)
	if err != nil {
		return TickResult{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.playing() || r.game.clock == nil {
		return TickResult{}, false
	}
	g := r.game
	turn := g.Turn
	if g.clock.charge(turn, m.clock.Now()) {
		m.finish(r, ReasonTimeout, turn.Opponent())
		return TickResult{Clocks: g.clock.snapshot(), TimeOut: true, Loser: turn}, true
	}
	return TickResult{Clocks: g.clock.snapshot()}, true
}

// finish ends the game in r. Callers hold r.mu. Finishing twice is a no-op.
func (m *Manager) finish(r *Room, reason Reason, winner othello.Color) {
	g := r.game
	if g == nil || g.Status == StatusFinished {
		return
	}
	g.Status = StatusFinished

	res := Result{
		RoomID:      r.ID,
		Reason:      reason,
		Winner:      winner,
		Pieces:      g.Board.Counts(),
		BlackPlayer: g.BlackPlayer,
		WhitePlayer: g.WhitePlayer,
		Moves:       len(g.Moves),
		StartedAt:   g.StartedAt,
		FinishedAt:  m.clock.Now(),
	}
	if winner != othello.Empty {
		res.WinnerName = g.playerName(winner)
		res.LoserName = g.playerName(winner.Opponent())
	}
	g.Result = &res

	m.log.Info().
		Int("room", r.ID).
		Str("reason", string(reason)).
		Str("winner", winner.String()).
		Int("black", res.Pieces.Black).
		Int("white", res.Pieces.White).
		Msg("game finished")

	if m.onFinish != nil {
		m.onFinish(res)
	}
}

// HandleDisconnect starts the grace period for a seated player. A second call
// for the same user restarts it.
func (m *Manager) HandleDisconnect(user string, roomID int) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	if prev, ok := m.pending[user]; ok {
		prev.timer.Stop()
	}
	p := &pendingDisconnect{roomID: roomID, expires: m.clock.Now().Add(m.grace)}
	p.timer = m.clock.AfterFunc(m.grace, func() { m.expire(user, p) })
	m.pending[user] = p

	m.log.Info().Str("user", user).Int("room", roomID).Dur("grace", m.grace).Msg("player disconnected")
}

func (m *Manager) expire(user string, p *pendingDisconnect) {
	m.pendingMu.Lock()
	if cur, ok := m.pending[user]; !ok || cur != p {
		m.pendingMu.Unlock()
		return
	}
	delete(m.pending, user)
	m.pendingMu.Unlock()

	m.log.Info().Str("user", user).Int("room", p.roomID).Msg("grace period expired")
	_ = m.Leave(p.roomID, user)

	m.expireMu.RLock()
	fn := m.onExpire
	m.expireMu.RUnlock()
	if fn != nil {
		fn(p.roomID, user)
	}
}

// HandleReconnect cancels a pending grace period and returns its room.
func (m *Manager) HandleReconnect(user string) (int, bool) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	p, ok := m.pending[user]
	if !ok {
		return 0, false
	}
	p.timer.Stop()
	delete(m.pending, user)
	m.log.Info().Str("user", user).Int("room", p.roomID).Msg("player reconnected")
	return p.roomID, true
}

// Disconnected lists the players of roomID currently inside a grace period, sorted.
func (m *Manager) Disconnected(roomID int) []string {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	var users []string
	for u, p := range m.pending {
		if p.roomID == roomID {
			users = append(users, u)
		}
	}
	sort.Strings(users)
	return users
}

// IsActivePlayer reports whether user plays in the game running in the room.
func (m *Manager) IsActivePlayer(roomID int, user string) bool {
	r, err := m.room(roomID)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.playing() && r.game.colorOf(user) != othello.Empty
}
