package meister

import (
	"context"
	"math"

	"github.com/vovakirdan/meister-server/internal/othello"
)

// cancelCheckInterval is how many nodes are visited between context checks.
const cancelCheckInterval = 1024

// Result is the outcome of a root search.
type Result struct {
	Move    othello.Point
	Score   int
	HasMove bool
}

// Search runs depth-limited minimax with alpha-beta pruning, maximizing for
// color. A side without legal moves passes and the ply still counts.
// It returns ctx.Err() if ctx is done before the search completes.
func Search(ctx context.Context, board othello.Board, color othello.Color, depth int) (Result, error) {
	s := newSearcher(ctx, color)
	score, move, ok := s.minimax(board, depth, math.MinInt, math.MaxInt, true)
	if s.stopped {
		return Result{}, ctx.Err()
	}
	return Result{Move: move, Score: score, HasMove: ok}, nil
}

// searcher carries one goroutine's search state. It is not shared.
type searcher struct {
	ctx     context.Context
	me      othello.Color
	nodes   int
	stopped bool
}

func newSearcher(ctx context.Context, me othello.Color) *searcher {
	return &searcher{ctx: ctx, me: me}
}

// cancelled polls the context every cancelCheckInterval nodes. Once it
// reports true every remaining node unwinds immediately.
func (s *searcher) cancelled() bool {
	if s.stopped {
		return true
	}
	s.nodes++
	if s.nodes%cancelCheckInterval == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	return s.stopped
}

// minimax scores are meaningless once s.stopped is set.
func (s *searcher) minimax(board othello.Board, depth, alpha, beta int, maximizing bool) (int, othello.Point, bool) {
	if s.cancelled() {
		return 0, othello.Point{}, false
	}
	if depth <= 0 || board.IsTerminal() {
		return Evaluate(board, s.me), othello.Point{}, false
	}

	mover := s.me
	if !maximizing {
		mover = s.me.Opponent()
	}

	moves := board.LegalMoves(mover)
	if len(moves) == 0 {
		score, _, _ := s.minimax(board, depth-1, alpha, beta, !maximizing)
		return score, othello.Point{}, false
	}

	best := moves[0]
	if maximizing {
		value := math.MinInt
		for _, m := range moves {
			next, _, _ := board.Apply(mover, m.Row, m.Col)
			score, _, _ := s.minimax(next, depth-1, alpha, beta, false)
			if s.stopped {
				return 0, best, false
			}
			if score > value {
				value = score
				best = m
			}
			alpha = max(alpha, score)
			if beta <= alpha {
				break
			}
		}
		return value, best, true
	}

	value := math.MaxInt
	for _, m := range moves {
		next, _, _ := board.Apply(mover, m.Row, m.Col)
		score, _, _ := s.minimax(next, depth-1, alpha, beta, true)
		if s.stopped {
			return 0, best, false
		}
		if score < value {
			value = score
			best = m
		}
		beta = min(beta, score)
		if beta <= alpha {
			break
		}
	}
	return value, best, true
}
