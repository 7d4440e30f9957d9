package draughts

import "fmt"

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

type Status int

const (
	StatusOngoing Status = iota
	StatusWhiteWon
	StatusBlackWon
	StatusDraw
)

// Square is one cell of the linear board array: empty, or occupied by a man
// or a king of one side.
type Square struct {
	Occupied bool
	Color    Color
	King     bool
}

// Board is the full restorable game state: 64 square descriptors, the side to
// move and the count of consecutive plies without a capture or a promotion
// (used for draw detection, so it has to survive persistence).
type Board struct {
	Squares    [64]Square
	Turn       Color
	QuietPlies int
}

// Move is a half-turn as produced by the oracle: origin, destination and the
// indices of every captured piece along the jump chain.
type Move struct {
	From     int
	To       int
	Captures []int
}

// Oracle is the rules capability the match core consumes. An oracle instance
// lives in memory for one request only; state travels through Snapshot and
// the board codec.
type Oracle interface {
	Turn() Color
	LegalMoves() []Move
	Apply(Move) error
	Status() Status
	Snapshot() Board
	Fork() Oracle
}

// Playable reports whether the index is one of the 32 dark squares pieces
// may stand on.
func Playable(idx int) bool {
	if idx < 0 || idx >= 64 {
		return false
	}
	return (idx/8+idx%8)%2 == 0
}

// SquareIndex parses a square name like "A7" (column A-H, rank 1-8).
func SquareIndex(name string) (int, bool) {
	if len(name) != 2 {
		return 0, false
	}
	col := int(name[0] - 'A')
	if col < 0 || col > 7 {
		col = int(name[0] - 'a')
	}
	row := int(name[1] - '1')
	if col < 0 || col > 7 || row < 0 || row > 7 {
		return 0, false
	}
	idx := row*8 + col
	if !Playable(idx) {
		return 0, false
	}
	return idx, true
}

func SquareName(idx int) string {
	return fmt.Sprintf("%c%d", 'A'+idx%8, idx/8+1)
}
