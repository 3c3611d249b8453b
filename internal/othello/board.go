package othello

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the board edge length.
const Size = 8

// Color is the content of a board cell and doubles as a player color.
type Color uint8

const (
	Empty Color = iota
	Black
	White
)

var ErrInvalidBoard = errors.New("invalid board")

var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Opponent returns the other player color. Empty has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// Valid reports whether c is a player color.
func (c Color) Valid() bool {
	return c == Black || c == White
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// ParseColor accepts "black"/"white" (any case) and the numeric wire codes "1"/"2".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black", "b", "1":
		return Black, nil
	case "white", "w", "2":
		return White, nil
	default:
		return Empty, fmt.Errorf("unknown color %q", s)
	}
}

// Point addresses a single cell.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the point lies on the board.
func (p Point) InBounds() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// String renders the point in board notation, column letter first ("D3").
func (p Point) String() string {
	return fmt.Sprintf("%c%d", 'A'+rune(p.Col), p.Row+1)
}

// Board is an 8x8 grid indexed [row][col]. It is a value type: assigning or
// passing a Board copies it, so a recorded board is never mutated by later play.
type Board [Size][Size]Color

// InitialBoard returns the standard four-disc opening position.
func InitialBoard() Board {
	var b Board
	b[3][3] = White
	b[3][4] = Black
	b[4][3] = Black
	b[4][4] = White
	return b
}

// At returns the cell content; out-of-bounds cells read as Empty.
func (b Board) At(row, col int) Color {
	if !(Point{Row: row, Col: col}).InBounds() {
		return Empty
	}
	return b[row][col]
}

// Flips returns the opponent discs that a disc of color placed at (row, col)
// would turn over. The result is empty when the target is occupied, off the
// board, or sandwiches nothing.
func (b Board) Flips(color Color, row, col int) []Point {
	if !color.Valid() || !(Point{Row: row, Col: col}).InBounds() || b[row][col] != Empty {
		return nil
	}
	opp := color.Opponent()

	var flips []Point
	for _, d := range directions {
		r, c := row+d[0], col+d[1]
		run := 0
		for (Point{Row: r, Col: c}).InBounds() && b[r][c] == opp {
			r += d[0]
			c += d[1]
			run++
		}
		if run == 0 || !(Point{Row: r, Col: c}).InBounds() || b[r][c] != color {
			continue
		}
		for i := 1; i <= run; i++ {
			flips = append(flips, Point{Row: row + d[0]*i, Col: col + d[1]*i})
		}
	}
	return flips
}

// IsLegal reports whether color may play at (row, col).
func (b Board) IsLegal(color Color, row, col int) bool {
	return len(b.Flips(color, row, col)) > 0
}

// LegalMoves lists every legal target for color in row-major order.
func (b Board) LegalMoves(color Color) []Point {
	var moves []Point
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.IsLegal(color, r, c) {
				moves = append(moves, Point{Row: r, Col: c})
			}
		}
	}
	return moves
}

// HasMove reports whether color has at least one legal move.
func (b Board) HasMove(color Color) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.IsLegal(color, r, c) {
				return true
			}
		}
	}
	return false
}

// Apply plays color at (row, col) and returns the resulting board together
// with the flipped cells. The receiver is left untouched. ok is false when
// the move is illegal.
func (b Board) Apply(color Color, row, col int) (next Board, flipped []Point, ok bool) {
	flipped = b.Flips(color, row, col)
	if len(flipped) == 0 {
		return b, nil, false
	}
	next = b
	next[row][col] = color
	for _, p := range flipped {
		next[p.Row][p.Col] = color
	}
	return next, flipped, true
}

// Counts holds the number of discs per color.
type Counts struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Of returns the count for color.
func (c Counts) Of(color Color) int {
	switch color {
	case Black:
		return c.Black
	case White:
		return c.White
	default:
		return 0
	}
}

// Total is the number of occupied cells.
func (c Counts) Total() int {
	return c.Black + c.White
}

// Counts tallies discs on the board.
func (b Board) Counts() Counts {
	var counts Counts
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch b[r][c] {
			case Black:
				counts.Black++
			case White:
				counts.White++
			}
		}
	}
	return counts
}

// IsTerminal reports whether neither side can move.
func (b Board) IsTerminal() bool {
	return !b.HasMove(Black) && !b.HasMove(White)
}

// Winner returns the color with more discs, or Empty for a draw.
func (b Board) Winner() Color {
	counts := b.Counts()
	switch {
	case counts.Black > counts.White:
		return Black
	case counts.White > counts.Black:
		return White
	default:
		return Empty
	}
}

// Rows converts the board to the numeric wire layout (0 empty, 1 black, 2 white).
func (b Board) Rows() [][]int {
	rows := make([][]int, Size)
	for r := 0; r < Size; r++ {
		rows[r] = make([]int, Size)
		for c := 0; c < Size; c++ {
			rows[r][c] = int(b[r][c])
		}
	}
	return rows
}

// BoardFromRows parses the numeric wire layout.
func BoardFromRows(rows [][]int) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, Size, len(rows))
	}
	for r, row := range rows {
		if len(row) != Size {
			return b, fmt.Errorf("%w: row %d has %d cells", ErrInvalidBoard, r, len(row))
		}
		for c, v := range row {
			if v < int(Empty) || v > int(White) {
				return b, fmt.Errorf("%w: cell (%d,%d) has value %d", ErrInvalidBoard, r, c, v)
			}
			b[r][c] = Color(v)
		}
	}
	return b, nil
}

func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString("  A B C D E F G H\n")
	for r := 0; r < Size; r++ {
		fmt.Fprintf(&sb, "%d ", r+1)
		for c := 0; c < Size; c++ {
			switch b[r][c] {
			case Black:
				sb.WriteString("X ")
			case White:
				sb.WriteString("O ")
			default:
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
