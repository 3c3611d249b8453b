package meister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/vovakirdan/meister-server/internal/othello"
)

// ErrAnalysisFailed is reported to clients for any unexpected analysis error.
var ErrAnalysisFailed = errors.New("analysis failed")

// AnalyzerConfig tunes the analysis worker pool.
type AnalyzerConfig struct {
	Depth   int
	Workers int
	Timeout time.Duration
}

// Analyzer bounds how many analyses run at once so a burst of requests cannot
// starve room handling. It only ever reads the boards it is given.
type Analyzer struct {
	depth   int
	timeout time.Duration
	slots   *semaphore.Weighted
	log     *zerolog.Logger
}

// NewAnalyzer constructs an analyzer with at least one worker slot.
func NewAnalyzer(cfg AnalyzerConfig, logger *zerolog.Logger) *Analyzer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	depth := cfg.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Analyzer{
		depth:   depth,
		timeout: cfg.Timeout,
		slots:   semaphore.NewWeighted(int64(workers)),
		log:     logger,
	}
}

// Depth returns the configured search depth.
func (a *Analyzer) Depth() int {
	return a.depth
}

// Analyze waits for a free worker slot and analyzes the position. Any failure,
// including a panic inside the search, is reported as ErrAnalysisFailed.
func (a *Analyzer) Analyze(ctx context.Context, board othello.Board, color othello.Color) (result *Analysis, err error) {
	if err := a.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	defer a.slots.Release(1)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Str("color", color.String()).Msg("meister analysis panicked")
			result, err = nil, ErrAnalysisFailed
		}
	}()

	started := time.Now()
	result, err = Analyze(ctx, board, color, a.depth)
	if err != nil {
		a.log.Warn().Err(err).Str("color", color.String()).Msg("meister analysis failed")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	a.log.Debug().
		Str("color", color.String()).
		Int("depth", a.depth).
		Int("candidates", len(result.Moves)).
		Dur("took", time.Since(started)).
		Msg("meister analysis done")
	return result, nil
}
