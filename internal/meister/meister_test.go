package meister

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/meister-server/internal/othello"
)

func TestEvaluateInitialBoardIsBalanced(t *testing.T) {
	b := othello.InitialBoard()
	if got := Evaluate(b, othello.Black); got != 0 {
		t.Fatalf("expected 0 for the opening position, got %d", got)
	}
	if got := Evaluate(b, othello.White); got != 0 {
		t.Fatalf("expected 0 for white as well, got %d", got)
	}
}

func TestEvaluateCornerControl(t *testing.T) {
	var b othello.Board
	b[0][0] = othello.Black

	// 100 positional + 25 corner, no mobility for anyone.
	if got := Evaluate(b, othello.Black); got != 125 {
		t.Fatalf("expected 125, got %d", got)
	}
	if got := Evaluate(b, othello.White); got != -125 {
		t.Fatalf("expected -125, got %d", got)
	}
}

func TestEvaluateEndgameUsesDiscCount(t *testing.T) {
	var b othello.Board
	n := 0
	for r := 0; r < othello.Size; r++ {
		for c := 0; c < othello.Size; c++ {
			if n < 10 {
				b[r][c] = othello.White
			} else {
				b[r][c] = othello.Black
			}
			n++
		}
	}
	if got := Evaluate(b, othello.Black); got != (54-10)*10 {
		t.Fatalf("expected %d, got %d", (54-10)*10, got)
	}
	if got := Evaluate(b, othello.White); got != (10-54)*10 {
		t.Fatalf("expected %d, got %d", (10-54)*10, got)
	}
}

func TestSearchReturnsLegalMove(t *testing.T) {
	b := othello.InitialBoard()
	res := mustSearch(t, b, othello.Black, 3)
	if !res.HasMove {
		t.Fatalf("expected a move from the opening")
	}
	if !b.IsLegal(othello.Black, res.Move.Row, res.Move.Col) {
		t.Fatalf("search returned illegal move %v", res.Move)
	}
}

func TestSearchFinishingMove(t *testing.T) {
	var b othello.Board
	b[0][0] = othello.Black
	b[0][1] = othello.White

	res := mustSearch(t, b, othello.Black, 4)
	if !res.HasMove || res.Move != (othello.Point{Row: 0, Col: 2}) {
		t.Fatalf("expected C1, got %+v", res)
	}
}

func TestSearchWithoutMoves(t *testing.T) {
	var b othello.Board
	b[0][0] = othello.Black

	res := mustSearch(t, b, othello.White, 3)
	if res.HasMove {
		t.Fatalf("expected no move, got %+v", res)
	}
}

func TestAnalyzeOpeningTiesAreAllBest(t *testing.T) {
	a, err := Analyze(context.Background(), othello.InitialBoard(), othello.Black, 3)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(a.Moves) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(a.Moves))
	}
	for _, m := range a.Moves {
		if m.Rank != RankBest {
			t.Fatalf("symmetric opening moves must all rank best, got %+v", a.Moves)
		}
	}
	if a.Evaluation != VerdictEven || a.OverallScore != 0 {
		t.Fatalf("expected even verdict, got %s (%d)", a.Evaluation, a.OverallScore)
	}
	if a.BestMove == nil || *a.BestMove != a.Moves[0].Move {
		t.Fatalf("best move must be the first ranked move")
	}
	if len(a.Moves[0].Reasons) == 0 || len(a.Moves[0].Reasons) > maxReasons {
		t.Fatalf("expected 1..%d reasons, got %v", maxReasons, a.Moves[0].Reasons)
	}
	for _, m := range a.Moves[1:] {
		if len(m.Reasons) != 0 {
			t.Fatalf("only the top move carries reasons, got %+v", m)
		}
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	b := othello.InitialBoard()
	b, _, _ = b.Apply(othello.Black, 2, 3)
	b, _, _ = b.Apply(othello.White, 2, 2)
	b, _, _ = b.Apply(othello.Black, 3, 2)

	first, err := Analyze(context.Background(), b, othello.White, 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := Analyze(context.Background(), b, othello.White, 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analysis differs between runs:\n%+v\n%+v", first, second)
	}
	for i := 1; i < len(first.Moves); i++ {
		if first.Moves[i-1].Score < first.Moves[i].Score {
			t.Fatalf("moves not sorted by descending score: %+v", first.Moves)
		}
	}
}

func TestAnalyzeNoLegalMoves(t *testing.T) {
	var b othello.Board
	b[3][3] = othello.Black
	b[3][4] = othello.Black

	a, err := Analyze(context.Background(), b, othello.White, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.BestMove != nil || len(a.Moves) != 0 || a.Evaluation != "" {
		t.Fatalf("expected empty analysis, got %+v", a)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   []Rank
	}{
		{"spread", []int{10, 5, 5, 1}, []Rank{RankBest, RankNormal, RankNormal, RankWorst}},
		{"tied top and bottom", []int{3, 3, 1, 1}, []Rank{RankBest, RankBest, RankWorst, RankWorst}},
		{"all equal", []int{7, 7, 7}, []Rank{RankBest, RankBest, RankBest}},
		{"single", []int{-4}, []Rank{RankBest}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := make([]MoveScore, len(tt.scores))
			for i, s := range tt.scores {
				scored[i].Score = s
			}
			classify(scored)
			for i := range scored {
				if scored[i].Rank != tt.want[i] {
					t.Fatalf("index %d: expected %s, got %s", i, tt.want[i], scored[i].Rank)
				}
			}
		})
	}
}

func TestVerdictThresholds(t *testing.T) {
	if verdictFor(21) != VerdictAdvantage || verdictFor(20) != VerdictEven ||
		verdictFor(-20) != VerdictEven || verdictFor(-21) != VerdictDisadvantage {
		t.Fatalf("verdict thresholds are off")
	}
}

func TestExplainCornerCapture(t *testing.T) {
	var b othello.Board
	b[1][1] = othello.White
	b[2][2] = othello.Black

	reasons := explain(b, othello.Black, othello.Point{Row: 0, Col: 0})
	if len(reasons) == 0 || reasons[0] != "Takes the A1 corner" {
		t.Fatalf("expected corner capture first, got %v", reasons)
	}
	if len(reasons) > maxReasons {
		t.Fatalf("too many reasons: %v", reasons)
	}
}

func TestExplainEmptyCornerDanger(t *testing.T) {
	var b othello.Board
	b[2][2] = othello.White
	b[3][3] = othello.Black

	reasons := explain(b, othello.Black, othello.Point{Row: 1, Col: 1})
	if len(reasons) == 0 || !strings.Contains(reasons[0], "empty A1 corner") {
		t.Fatalf("expected corner danger warning, got %v", reasons)
	}
}

func TestExplainIllegalMove(t *testing.T) {
	if reasons := explain(othello.InitialBoard(), othello.Black, othello.Point{}); reasons != nil {
		t.Fatalf("expected no reasons for an illegal move, got %v", reasons)
	}
}

func TestAnalyzerWrapsFailures(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{Depth: 2, Workers: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, othello.InitialBoard(), othello.Black); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}

	res, err := a.Analyze(context.Background(), othello.InitialBoard(), othello.Black)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Moves) != 4 {
		t.Fatalf("expected 4 moves, got %d", len(res.Moves))
	}
}

func TestAnalyzerRejectsInvalidColor(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil)
	if a.Depth() != DefaultDepth {
		t.Fatalf("expected default depth %d, got %d", DefaultDepth, a.Depth())
	}
	if _, err := a.Analyze(context.Background(), othello.InitialBoard(), othello.Empty); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}
}

func mustSearch(t *testing.T, b othello.Board, color othello.Color, depth int) Result {
	t.Helper()

	res, err := Search(context.Background(), b, color, depth)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	return res
}

// openingAfter plays a few opening moves so the tree is wide enough to be slow.
func openingAfter(t *testing.T) othello.Board {
	t.Helper()

	b, err := othello.Replay([]othello.Move{
		{Color: othello.Black, Row: 2, Col: 3},
		{Color: othello.White, Row: 2, Col: 2},
		{Color: othello.Black, Row: 3, Col: 2},
		{Color: othello.White, Row: 4, Col: 2},
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	return b
}

func TestAnalyzerTimeoutStopsRunningSearch(t *testing.T) {
	const timeout = 50 * time.Millisecond
	a := NewAnalyzer(AnalyzerConfig{Depth: 12, Workers: 1, Timeout: timeout}, nil)

	started := time.Now()
	_, err := a.Analyze(context.Background(), openingAfter(t), othello.Black)
	elapsed := time.Since(started)

	if !errors.Is(err, ErrAnalysisFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %v", err)
	}
	if elapsed > 10*timeout {
		t.Fatalf("search ignored its %v budget, took %v", timeout, elapsed)
	}

	// The worker slot is free again right away.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.slots.Acquire(ctx, 1); err != nil {
		t.Fatalf("worker slot still held: %v", err)
	}
	a.slots.Release(1)
}

func TestSearchHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Search(ctx, openingAfter(t), othello.Black, 12); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
