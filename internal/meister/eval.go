package meister

import "github.com/vovakirdan/meister-server/internal/othello"

const (
	// endgameThreshold is the disc count above which only material matters.
	endgameThreshold = 55
	endgameWeight    = 10
	mobilityWeight   = 5
	cornerWeight     = 25
)

// positionWeights favors corners and penalizes the squares that hand them away.
var positionWeights = [othello.Size][othello.Size]int{
	{100, -20, 10, 5, 5, 10, -20, 100},
	{-20, -50, -2, -2, -2, -2, -50, -20},
	{10, -2, 1, 1, 1, 1, -2, 10},
	{5, -2, 1, 0, 0, 1, -2, 5},
	{5, -2, 1, 0, 0, 1, -2, 5},
	{10, -2, 1, 1, 1, 1, -2, 10},
	{-20, -50, -2, -2, -2, -2, -50, -20},
	{100, -20, 10, 5, 5, 10, -20, 100},
}

var corners = [4]othello.Point{{Row: 0, Col: 0}, {Row: 0, Col: 7}, {Row: 7, Col: 0}, {Row: 7, Col: 7}}

// Evaluate scores board from color's point of view. Positive is good for color.
func Evaluate(board othello.Board, color othello.Color) int {
	opp := color.Opponent()
	counts := board.Counts()

	if counts.Total() > endgameThreshold {
		return (counts.Of(color) - counts.Of(opp)) * endgameWeight
	}

	positional := 0
	for r := 0; r < othello.Size; r++ {
		for c := 0; c < othello.Size; c++ {
			switch board[r][c] {
			case color:
				positional += positionWeights[r][c]
			case opp:
				positional -= positionWeights[r][c]
			}
		}
	}

	mobility := (len(board.LegalMoves(color)) - len(board.LegalMoves(opp))) * mobilityWeight

	cornerScore := 0
	for _, p := range corners {
		switch board[p.Row][p.Col] {
		case color:
			cornerScore += cornerWeight
		case opp:
			cornerScore -= cornerWeight
		}
	}

	return positional + mobility + cornerScore
}

func isCorner(p othello.Point) bool {
	for _, c := range corners {
		if c == p {
			return true
		}
	}
	return false
}

// cornerFor returns the corner p touches (X- or C-square) if any.
func cornerFor(p othello.Point) (othello.Point, bool) {
	for _, c := range corners {
		dr, dc := p.Row-c.Row, p.Col-c.Col
		if dr < 0 {
			dr = -dr
		}
		if dc < 0 {
			dc = -dc
		}
		if dr <= 1 && dc <= 1 && (dr+dc) > 0 {
			return c, true
		}
	}
	return othello.Point{}, false
}

func isEdge(p othello.Point) bool {
	return p.Row == 0 || p.Row == othello.Size-1 || p.Col == 0 || p.Col == othello.Size-1
}
