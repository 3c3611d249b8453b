package othello

import "fmt"

// Move is a recorded play. It is never modified after being appended to a history.
type Move struct {
	Color   Color   `json:"color"`
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Flipped []Point `json:"flipped"`
}

// Replay rebuilds the board reached by playing moves from the initial position.
func Replay(moves []Move) (Board, error) {
	board := InitialBoard()
	for i, m := range moves {
		next, _, ok := board.Apply(m.Color, m.Row, m.Col)
		if !ok {
			return board, fmt.Errorf("move %d (%s at %d,%d) is illegal", i, m.Color, m.Row, m.Col)
		}
		board = next
	}
	return board, nil
}
