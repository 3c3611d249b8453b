// Package history persists finished games.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/meister-server/internal/core"
	"github.com/vovakirdan/meister-server/internal/store"
)

// DefaultGuestName is the shared identity whose games are never recorded.
const DefaultGuestName = "Guest"

const (
	queueSize    = 64
	flushTimeout = 5 * time.Second
)

// ErrQueueFull is logged when results arrive faster than the store accepts them.
var ErrQueueFull = errors.New("history queue full")

// Recorder turns finished games into match records and appends them off the
// game goroutines.
type Recorder struct {
	store store.HistoryStore
	guest string
	queue chan *store.MatchRecord
	log   *zerolog.Logger
	done  chan struct{}
}

// NewRecorder creates a recorder writing to st. Games involving guestName are skipped.
func NewRecorder(st store.HistoryStore, guestName string, logger *zerolog.Logger) *Recorder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Recorder{
		store: st,
		guest: strings.TrimSpace(guestName),
		queue: make(chan *store.MatchRecord, queueSize),
		log:   logger,
		done:  make(chan struct{}),
	}
}

// Record queues a finished game. It never blocks.
func (r *Recorder) Record(res core.Result) {
	if r.isGuest(res.BlackPlayer) || r.isGuest(res.WhitePlayer) {
		r.log.Debug().Int("room", res.RoomID).Msg("skipping guest game")
		return
	}

	rec := &store.MatchRecord{
		RoomID:      res.RoomID,
		BlackPlayer: res.BlackPlayer,
		WhitePlayer: res.WhitePlayer,
		WinnerName:  res.WinnerName,
		LoserName:   res.LoserName,
		Reason:      string(res.Reason),
		BlackCount:  res.Pieces.Black,
		WhiteCount:  res.Pieces.White,
		Moves:       res.Moves,
		FinishedAt:  res.FinishedAt,
	}
	select {
	case r.queue <- rec:
	default:
		r.log.Error().Err(ErrQueueFull).Str("black", rec.BlackPlayer).Str("white", rec.WhitePlayer).Msg("dropping match record")
	}
}

func (r *Recorder) isGuest(name string) bool {
	return r.guest != "" && name == r.guest
}

// Run appends queued records until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case rec := <-r.queue:
			r.append(ctx, rec)
		case <-ctx.Done():
			r.flush()
			return
		}
	}
}

// Wait blocks until Run has returned.
func (r *Recorder) Wait() {
	<-r.done
}

func (r *Recorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case rec := <-r.queue:
			r.append(ctx, rec)
		default:
			return
		}
	}
}

func (r *Recorder) append(ctx context.Context, rec *store.MatchRecord) {
	if err := r.store.AppendMatch(ctx, rec); err != nil {
		r.log.Error().Err(err).Str("black", rec.BlackPlayer).Str("white", rec.WhitePlayer).Msg("failed to save match")
		return
	}
	r.log.Info().
		Str("match_id", rec.ID).
		Str("black", rec.BlackPlayer).
		Str("white", rec.WhitePlayer).
		Str("reason", rec.Reason).
		Msg("match saved")
}

// List returns the full history, oldest first.
func (r *Recorder) List(ctx context.Context) ([]*store.MatchRecord, error) {
	return r.store.ListMatches(ctx)
}
