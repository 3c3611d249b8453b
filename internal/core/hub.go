package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/meister"
)

// DefaultTickInterval is how often running clocks are charged.
const DefaultTickInterval = time.Second

// HubOptions wires the hub to its collaborators. Nil fields get defaults.
type HubOptions struct {
	Manager      *Manager
	Analyzer     *meister.Analyzer
	Presence     *Presence
	Clock        clock.Clock
	TickInterval time.Duration
	Logger       *zerolog.Logger
}

type envelope struct {
	client *Client
	cmd    *Command
}

type analysisDone struct {
	client    *Client
	requestID string
	analysis  *meister.Analysis
	err       error
}

// Hub serializes every client command on a single goroutine and fans out
// room state, lobby and presence updates.
type Hub struct {
	manager  *Manager
	analyzer *meister.Analyzer
	presence *Presence
	clock    clock.Clock
	tick     time.Duration
	log      *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	analyses   chan analysisDone
	expired    chan int
	done       chan struct{}

	clients map[*Client]struct{}
}

// NewHub creates a new hub instance.
func NewHub(opts HubOptions) *Hub {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Manager == nil {
		opts.Manager = NewManager(ManagerOptions{Clock: opts.Clock, Logger: opts.Logger})
	}
	if opts.Analyzer == nil {
		opts.Analyzer = meister.NewAnalyzer(meister.AnalyzerConfig{}, opts.Logger)
	}
	if opts.Presence == nil {
		opts.Presence = NewPresence()
	}

	h := &Hub{
		manager:    opts.Manager,
		analyzer:   opts.Analyzer,
		presence:   opts.Presence,
		clock:      opts.Clock,
		tick:       opts.TickInterval,
		log:        opts.Logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope, 64),
		analyses:   make(chan analysisDone, 16),
		expired:    make(chan int, 16),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
	h.manager.setExpireHook(h.graceExpired)
	return h
}

// Manager exposes the room manager for read-only callers such as REST handlers.
func (h *Hub) Manager() *Manager {
	return h.manager
}

// RegisterClient attaches a client to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient detaches a client. The hub closes c.Events afterwards.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes hub events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	ticker := h.clock.Ticker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
			h.send(c, &Event{Kind: EventLobby, Lobby: h.manager.Rooms()})
			h.send(c, &Event{Kind: EventOnlineUsers, Users: h.presence.Users()})
		case c := <-h.unregister:
			h.disconnect(c)
		case env := <-h.inbox:
			h.handle(ctx, env.client, env.cmd)
		case d := <-h.analyses:
			h.deliverAnalysis(d)
		case roomID := <-h.expired:
			h.broadcastRoom(roomID)
		case <-ticker.C:
			h.tickClocks()
		}
	}
}

// pump forwards a client's commands into the hub inbox.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-c.quit:
				return
			case <-ctx.Done():
				return
			}
		case <-c.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) shutdown() {
	for c := range h.clients {
		close(c.quit)
		close(c.Events)
		delete(h.clients, c)
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	switch cmd.Kind {
	case CommandLogin:
		h.login(c, cmd)
	case CommandListRooms:
		h.reply(c, cmd, &Ack{Rooms: h.manager.Rooms()})
	case CommandAnalyze:
		h.analyze(ctx, c, cmd)
	case CommandJoinRoom:
		h.join(c, cmd)
	default:
		h.roomCommand(c, cmd)
	}
}

func (h *Hub) login(c *Client, cmd *Command) {
	user := strings.TrimSpace(cmd.User)
	if user == "" {
		h.fail(c, cmd, ErrBadRequest)
		return
	}
	if prev := h.presence.User(c); prev != "" && prev != user {
		h.depart(c, prev)
	}

	if old := h.presence.Bind(c, user); old != nil {
		if c.roomID == 0 {
			c.roomID = old.roomID
		}
		old.roomID = 0
		h.send(old, &Event{Kind: EventKicked, User: user})
		h.log.Info().Str("user", user).Str("old_client", old.ID).Str("client", c.ID).Msg("duplicate login, old connection kicked")
	}

	ack := &Ack{User: user}
	if roomID, ok := h.manager.HandleReconnect(user); ok {
		ack.ReconnectRoom = roomID
		c.roomID = roomID
	}
	h.reply(c, cmd, ack)

	if ack.ReconnectRoom != 0 {
		// the room drops its reconnecting marker for user
		h.broadcastRoom(ack.ReconnectRoom)
	} else if c.roomID != 0 {
		if state, err := h.manager.Snapshot(c.roomID); err == nil {
			h.send(c, &Event{Kind: EventRoomState, Room: c.roomID, State: state})
		}
	}
	h.broadcastOnline()
}

func (h *Hub) join(c *Client, cmd *Command) {
	user := h.presence.User(c)
	if user == "" {
		h.fail(c, cmd, ErrNotLoggedIn)
		return
	}
	if _, err := h.manager.room(cmd.Room); err != nil {
		h.fail(c, cmd, err)
		return
	}

	if prev := c.roomID; prev != 0 && prev != cmd.Room {
		_ = h.manager.Leave(prev, user)
		c.roomID = 0
		h.broadcastRoom(prev)
	}

	role, err := h.manager.Join(cmd.Room, user, cmd.Role)
	if err != nil {
		h.fail(c, cmd, err)
		return
	}
	c.roomID = cmd.Room
	h.broadcastRoom(cmd.Room)
	h.reply(c, cmd, &Ack{User: user, Role: role})
}

func (h *Hub) roomCommand(c *Client, cmd *Command) {
	user := h.presence.User(c)
	if user == "" {
		h.fail(c, cmd, ErrNotLoggedIn)
		return
	}
	roomID := c.roomID
	if roomID == 0 {
		h.fail(c, cmd, ErrNotInRoom)
		return
	}

	ack := &Ack{User: user}
	var err error
	switch cmd.Kind {
	case CommandLeaveRoom:
		if err = h.manager.Leave(roomID, user); err == nil {
			c.roomID = 0
		}
	case CommandSwapSides:
		err = h.manager.Swap(roomID)
	case CommandUpdateSettings:
		err = h.manager.UpdateSettings(roomID, cmd.Settings)
	case CommandStartGame:
		err = h.manager.Start(roomID)
	case CommandMakeMove:
		ack.Move, err = h.manager.Move(roomID, user, cmd.Row, cmd.Col)
	default:
		err = ErrBadRequest
	}
	if err != nil {
		h.fail(c, cmd, err)
		return
	}

	h.broadcastRoom(roomID)
	h.reply(c, cmd, ack)
}

func (h *Hub) analyze(ctx context.Context, c *Client, cmd *Command) {
	board, color, reqID := cmd.Board, cmd.Color, cmd.RequestID
	go func() {
		res, err := h.analyzer.Analyze(ctx, board, color)
		select {
		case h.analyses <- analysisDone{client: c, requestID: reqID, analysis: res, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (h *Hub) deliverAnalysis(d analysisDone) {
	if _, ok := h.clients[d.client]; !ok {
		return
	}
	if d.err != nil {
		h.log.Warn().Err(d.err).Str("client", d.client.ID).Msg("analysis failed")
		h.send(d.client, &Event{Kind: EventAck, RequestID: d.requestID, Error: ErrAnalysisFailed})
		return
	}
	h.send(d.client, &Event{Kind: EventAck, RequestID: d.requestID, Ack: &Ack{Analysis: d.analysis}})
}

func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.quit)

	user := h.presence.Remove(c)
	h.depart(c, user)
	close(c.Events)

	if user != "" {
		h.broadcastOnline()
	}
}

// depart takes c out of its room. A player in a running game gets a grace
// period instead of forfeiting immediately.
func (h *Hub) depart(c *Client, user string) {
	roomID := c.roomID
	c.roomID = 0
	if roomID == 0 || user == "" {
		return
	}

	if h.manager.IsActivePlayer(roomID, user) {
		h.manager.HandleDisconnect(user, roomID)
		h.broadcastEvent(roomID, &Event{Kind: EventPlayerDisconnected, Room: roomID, User: user})
	} else {
		_ = h.manager.Leave(roomID, user)
	}
	h.broadcastRoom(roomID)
}

// graceExpired runs on a timer goroutine.
func (h *Hub) graceExpired(roomID int, _ string) {
	select {
	case h.expired <- roomID:
	case <-h.done:
	}
}

func (h *Hub) tickClocks() {
	for _, id := range h.manager.RoomIDs() {
		res, ok := h.manager.Tick(id)
		if !ok {
			continue
		}
		if res.TimeOut {
			h.broadcastRoom(id)
			continue
		}
		clocks := res.Clocks
		h.broadcastEvent(id, &Event{Kind: EventTimer, Room: id, Clocks: &clocks})
	}
}

func (h *Hub) reply(c *Client, cmd *Command, ack *Ack) {
	h.send(c, &Event{Kind: EventAck, RequestID: cmd.RequestID, Ack: ack})
}

func (h *Hub) fail(c *Client, cmd *Command, err error) {
	var ce *CoreError
	if !errors.As(err, &ce) {
		h.log.Error().Err(err).Str("command", cmd.Kind.String()).Msg("unexpected command failure")
		ce = coreError(ErrCodeInternal, "Internal error")
	}
	h.log.Debug().Str("client", c.ID).Str("command", cmd.Kind.String()).Str("code", ce.Code).Msg("command rejected")
	h.send(c, &Event{Kind: EventAck, RequestID: cmd.RequestID, Error: ce})
}

// broadcastRoom sends the room snapshot to its members and the lobby to everyone.
func (h *Hub) broadcastRoom(roomID int) {
	if state, err := h.manager.Snapshot(roomID); err == nil {
		h.broadcastEvent(roomID, &Event{Kind: EventRoomState, Room: roomID, State: state})
	}
	h.broadcastLobby()
}

func (h *Hub) broadcastEvent(roomID int, ev *Event) {
	for c := range h.clients {
		if c.roomID == roomID {
			h.send(c, ev)
		}
	}
}

func (h *Hub) broadcastLobby() {
	ev := &Event{Kind: EventLobby, Lobby: h.manager.Rooms()}
	for c := range h.clients {
		h.send(c, ev)
	}
}

func (h *Hub) broadcastOnline() {
	ev := &Event{Kind: EventOnlineUsers, Users: h.presence.Users()}
	for c := range h.clients {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
		h.log.Warn().Str("client", c.ID).Int("kind", int(ev.Kind)).Msg("event dropped")
	}
}
