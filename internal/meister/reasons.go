package meister

import (
	"fmt"

	"github.com/vovakirdan/meister-server/internal/othello"
)

const (
	maxReasons     = 3
	bigFlipCount   = 4
	quietFlipCount = 1
)

// rule inspects a candidate move and returns a short rationale tag, or "".
type rule func(c moveContext) string

type moveContext struct {
	before  othello.Board
	after   othello.Board
	color   othello.Color
	move    othello.Point
	flipped []othello.Point
}

// rules are evaluated in order; the first maxReasons non-empty tags win.
var rules = []rule{
	cornerCapture,
	emptyCornerDanger,
	edgeStability,
	flipCount,
	mobilityReduction,
	cornerGift,
	endgameLead,
}

// explain generates presentation hints for a move. It never affects ranking.
func explain(board othello.Board, color othello.Color, move othello.Point) []string {
	after, flipped, ok := board.Apply(color, move.Row, move.Col)
	if !ok {
		return nil
	}
	ctx := moveContext{before: board, after: after, color: color, move: move, flipped: flipped}

	reasons := make([]string, 0, maxReasons)
	for _, r := range rules {
		if tag := r(ctx); tag != "" {
			reasons = append(reasons, tag)
			if len(reasons) == maxReasons {
				break
			}
		}
	}
	return reasons
}

func cornerCapture(c moveContext) string {
	if isCorner(c.move) {
		return fmt.Sprintf("Takes the %s corner", c.move)
	}
	return ""
}

func emptyCornerDanger(c moveContext) string {
	corner, ok := cornerFor(c.move)
	if !ok || c.after[corner.Row][corner.Col] != othello.Empty {
		return ""
	}
	return fmt.Sprintf("Careful: next to the empty %s corner", corner)
}

func edgeStability(c moveContext) string {
	if isEdge(c.move) && !isCorner(c.move) {
		return "Builds on the edge where discs are hard to flip back"
	}
	return ""
}

func flipCount(c moveContext) string {
	switch n := len(c.flipped); {
	case n >= bigFlipCount:
		return fmt.Sprintf("Flips %d discs", n)
	case n <= quietFlipCount:
		return "Quiet move that flips a single disc"
	default:
		return ""
	}
}

func mobilityReduction(c moveContext) string {
	opp := c.color.Opponent()
	before := len(c.before.LegalMoves(opp))
	after := len(c.after.LegalMoves(opp))
	if after < before {
		return fmt.Sprintf("Cuts the opponent's options from %d to %d", before, after)
	}
	return ""
}

func cornerGift(c moveContext) string {
	for _, m := range c.after.LegalMoves(c.color.Opponent()) {
		if isCorner(m) {
			return fmt.Sprintf("Gives the opponent the %s corner", m)
		}
	}
	return ""
}

func endgameLead(c moveContext) string {
	counts := c.after.Counts()
	if counts.Total() <= endgameThreshold {
		return ""
	}
	mine, theirs := counts.Of(c.color), counts.Of(c.color.Opponent())
	if mine > theirs {
		return fmt.Sprintf("Leads the endgame disc count %d-%d", mine, theirs)
	}
	return ""
}
