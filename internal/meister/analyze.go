package meister

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/meister-server/internal/othello"
)

// DefaultDepth is the search depth used when a caller asks for zero.
const DefaultDepth = 4

// Rank classifies an analyzed move relative to its siblings.
type Rank string

const (
	RankBest   Rank = "best"
	RankNormal Rank = "normal"
	RankWorst  Rank = "worst"
)

// Verdict summarizes the static evaluation of the position.
type Verdict string

const (
	VerdictAdvantage    Verdict = "advantage"
	VerdictEven         Verdict = "even"
	VerdictDisadvantage Verdict = "disadvantage"
)

const verdictMargin = 20

// MoveScore is one ranked candidate.
type MoveScore struct {
	Move    othello.Point `json:"move"`
	Score   int           `json:"score"`
	Rank    Rank          `json:"rank"`
	Reasons []string      `json:"reasons,omitempty"`
}

// Analysis is the Meister view of a position. An empty Moves slice with a nil
// BestMove and empty Evaluation means the side to analyze has no legal move.
type Analysis struct {
	BestMove     *othello.Point `json:"bestMove"`
	Moves        []MoveScore    `json:"analysis"`
	Evaluation   Verdict        `json:"evaluation,omitempty"`
	OverallScore int            `json:"overallScore"`
}

// Analyze ranks every legal move for color. Each root move is searched
// depth-1 further plies with the opponent to move; root moves are searched in
// parallel but results keep row-major order before the stable sort, so the
// output is deterministic.
func Analyze(ctx context.Context, board othello.Board, color othello.Color, depth int) (*Analysis, error) {
	if !color.Valid() {
		return nil, fmt.Errorf("analyze: invalid color %d", color)
	}
	if depth <= 0 {
		depth = DefaultDepth
	}

	moves := board.LegalMoves(color)
	if len(moves) == 0 {
		return &Analysis{Moves: []MoveScore{}}, nil
	}

	scored := make([]MoveScore, len(moves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range moves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			next, _, _ := board.Apply(color, m.Row, m.Col)
			s := newSearcher(gctx, color)
			score, _, _ := s.minimax(next, depth-1, math.MinInt, math.MaxInt, false)
			if s.stopped {
				return gctx.Err()
			}
			scored[i] = MoveScore{Move: m, Score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	classify(scored)
	scored[0].Reasons = explain(board, color, scored[0].Move)

	overall := Evaluate(board, color)
	best := scored[0].Move
	return &Analysis{
		BestMove:     &best,
		Moves:        scored,
		Evaluation:   verdictFor(overall),
		OverallScore: overall,
	}, nil
}

// classify expects scored sorted by descending score. A move equal to the
// best score is always best, even when every move ties.
func classify(scored []MoveScore) {
	bestScore := scored[0].Score
	worstScore := scored[len(scored)-1].Score
	for i := range scored {
		switch {
		case i == 0, scored[i].Score == bestScore:
			scored[i].Rank = RankBest
		case scored[i].Score <= worstScore:
			scored[i].Rank = RankWorst
		default:
			scored[i].Rank = RankNormal
		}
	}
}

func verdictFor(score int) Verdict {
	switch {
	case score > verdictMargin:
		return VerdictAdvantage
	case score < -verdictMargin:
		return VerdictDisadvantage
	default:
		return VerdictEven
	}
}
