package board

import (
	"errors"
	"fmt"
)

// Mark is the content of a single cell.
type Mark uint8

const (
	Empty  Mark = 0
	First  Mark = 1 // mark of the game's first principal
	Second Mark = 2 // mark of the game's second principal
)

var (
	ErrBadSize      = errors.New("unsupported board size")
	ErrOutOfBounds  = errors.New("cell index out of bounds")
	ErrCellOccupied = errors.New("cell occupied")
)

// Board is a square grid of marks. A cell goes Empty -> First/Second
// exactly once and never reverts.
type Board struct {
	Size  int    `json:"size"`
	Cells []Mark `json:"cells"`
}

// New returns an empty board. Size must be 3, 5 or 7.
func New(size int) (*Board, error) {
	switch size {
	case 3, 5, 7:
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	return &Board{
		Size:  size,
		Cells: make([]Mark, size*size),
	}, nil
}

// Place writes a mark at index. The only observable effect on success
// is the cell transition.
func (b *Board) Place(index int, m Mark) error {
	if index < 0 || index >= len(b.Cells) {
		return fmt.Errorf("%w: index %d on %dx%d board", ErrOutOfBounds, index, b.Size, b.Size)
	}
	if b.Cells[index] != Empty {
		return fmt.Errorf("%w: index %d", ErrCellOccupied, index)
	}
	b.Cells[index] = m
	return nil
}

// Full reports whether every cell is non-empty.
func (b *Board) Full() bool {
	for _, c := range b.Cells {
		if c == Empty {
			return false
		}
	}
	return true
}

// Outcome is the result of evaluating a board position.
type Outcome struct {
	Winner Mark  `json:"winner"` // Empty when no line is complete
	Line   []int `json:"line,omitempty"`
	Draw   bool  `json:"draw"`
}

// Decided reports whether the game is over (win or draw).
func (o Outcome) Decided() bool {
	return o.Winner != Empty || o.Draw
}

// Evaluate scans every win line and returns the first one fully occupied
// by a single mark. Scan order is fixed: rows, then columns, then the
// main diagonal, then the anti-diagonal, each in increasing index order.
// If no line is complete and the board is full, the outcome is a draw.
// The function is pure: a constant board always yields the same outcome.
func (b *Board) Evaluate() Outcome {
	for _, line := range b.winLines() {
		if m := b.lineOwner(line); m != Empty {
			return Outcome{Winner: m, Line: line}
		}
	}
	if b.Full() {
		return Outcome{Draw: true}
	}
	return Outcome{}
}

// lineOwner returns the mark occupying every cell of the line, or Empty.
func (b *Board) lineOwner(line []int) Mark {
	m := b.Cells[line[0]]
	if m == Empty {
		return Empty
	}
	for _, idx := range line[1:] {
		if b.Cells[idx] != m {
			return Empty
		}
	}
	return m
}

// winLines generates the full line set for the board size: all rows,
// all columns and the two full diagonals, each of length Size.
func (b *Board) winLines() [][]int {
	n := b.Size
	lines := make([][]int, 0, 2*n+2)
	for r := 0; r < n; r++ {
		row := make([]int, n)
		for c := 0; c < n; c++ {
			row[c] = r*n + c
		}
		lines = append(lines, row)
	}
	for c := 0; c < n; c++ {
		col := make([]int, n)
		for r := 0; r < n; r++ {
			col[r] = r*n + c
		}
		lines = append(lines, col)
	}
	diag := make([]int, n)
	anti := make([]int, n)
	for i := 0; i < n; i++ {
		diag[i] = i*n + i
		anti[i] = i*n + (n - 1 - i)
	}
	lines = append(lines, diag, anti)
	return lines
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	cells := make([]Mark, len(b.Cells))
	copy(cells, b.Cells)
	return &Board{Size: b.Size, Cells: cells}
}
