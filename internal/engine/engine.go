package engine

import (
	"fmt"

	"draughts_arena/internal/domain/draughts"
)

// drawQuietPlies is the number of consecutive plies without a capture or a
// promotion after which the game is declared drawn.
const drawQuietPlies = 64

// Engine is an in-memory draughts oracle on the 32 dark squares of an 8x8
// board. White sits on ranks 1-3 and moves up, black on ranks 6-8 and moves
// down. Captures are mandatory and jump chains must be completed; men capture
// forward only, kings in all four diagonals.
type Engine struct {
	b draughts.Board
}

func New() *Engine {
	var b draughts.Board
	b.Turn = draughts.White
	for idx := 0; idx < 64; idx++ {
		if !draughts.Playable(idx) {
			continue
		}
		switch row := idx / 8; {
		case row <= 2:
			b.Squares[idx] = draughts.Square{Occupied: true, Color: draughts.White}
		case row >= 5:
			b.Squares[idx] = draughts.Square{Occupied: true, Color: draughts.Black}
		}
	}
	return &Engine{b: b}
}

func FromBoard(b draughts.Board) *Engine {
	return &Engine{b: b}
}

// Factory is the oracle constructor injected into the match core.
type Factory struct{}

func (Factory) Initial() draughts.Oracle { return New() }

func (Factory) FromBoard(b draughts.Board) draughts.Oracle { return FromBoard(b) }

func (e *Engine) Turn() draughts.Color { return e.b.Turn }

func (e *Engine) Snapshot() draughts.Board { return e.b }

func (e *Engine) Fork() draughts.Oracle {
	return &Engine{b: e.b}
}

func (e *Engine) LegalMoves() []draughts.Move {
	return e.movesFor(e.b.Turn)
}

func (e *Engine) Apply(m draughts.Move) error {
	if m.From < 0 || m.From >= 64 || m.To < 0 || m.To >= 64 {
		return fmt.Errorf("move out of board range: %d-%d", m.From, m.To)
	}
	piece := e.b.Squares[m.From]
	if !piece.Occupied || piece.Color != e.b.Turn {
		return fmt.Errorf("no %s piece on %s", e.b.Turn, draughts.SquareName(m.From))
	}
	if e.b.Squares[m.To].Occupied {
		return fmt.Errorf("destination %s is occupied", draughts.SquareName(m.To))
	}

	e.b.Squares[m.From] = draughts.Square{}
	for _, c := range m.Captures {
		e.b.Squares[c] = draughts.Square{}
	}

	promoted := false
	if !piece.King && backRank(piece.Color, m.To/8) {
		piece.King = true
		promoted = true
	}
	e.b.Squares[m.To] = piece

	if len(m.Captures) > 0 || promoted {
		e.b.QuietPlies = 0
	} else {
		e.b.QuietPlies++
	}
	e.b.Turn = e.b.Turn.Opponent()
	return nil
}

func (e *Engine) Status() draughts.Status {
	if e.b.QuietPlies >= drawQuietPlies {
		return draughts.StatusDraw
	}
	if len(e.movesFor(e.b.Turn)) == 0 {
		if e.b.Turn == draughts.White {
			return draughts.StatusBlackWon
		}
		return draughts.StatusWhiteWon
	}
	return draughts.StatusOngoing
}

func (e *Engine) movesFor(c draughts.Color) []draughts.Move {
	var captures []draughts.Move
	for idx := 0; idx < 64; idx++ {
		sq := e.b.Squares[idx]
		if sq.Occupied && sq.Color == c {
			captures = append(captures, captureChains(e.b.Squares, idx, idx, sq, nil)...)
		}
	}
	// capture is mandatory
	if len(captures) > 0 {
		return captures
	}

	var quiet []draughts.Move
	for idx := 0; idx < 64; idx++ {
		sq := e.b.Squares[idx]
		if !sq.Occupied || sq.Color != c {
			continue
		}
		row, col := idx/8, idx%8
		for _, dr := range rowDirs(sq) {
			for _, dc := range []int{-1, 1} {
				nr, nc := row+dr, col+dc
				if nr < 0 || nr > 7 || nc < 0 || nc > 7 {
					continue
				}
				to := nr*8 + nc
				if !e.b.Squares[to].Occupied {
					quiet = append(quiet, draughts.Move{From: idx, To: to})
				}
			}
		}
	}
	return quiet
}

// captureChains walks every jump chain starting at pos. A chain ends when no
// further jump exists, or when a man reaches the back rank (promotion stops
// the move).
func captureChains(sq [64]draughts.Square, origin, pos int, piece draughts.Square, acc []int) []draughts.Move {
	var out []draughts.Move
	row, col := pos/8, pos%8
	extended := false

	for _, dr := range rowDirs(piece) {
		for _, dc := range []int{-1, 1} {
			mr, mc := row+dr, col+dc
			lr, lc := row+2*dr, col+2*dc
			if lr < 0 || lr > 7 || lc < 0 || lc > 7 {
				continue
			}
			mid, land := mr*8+mc, lr*8+lc
			if !sq[mid].Occupied || sq[mid].Color == piece.Color || sq[land].Occupied {
				continue
			}

			extended = true
			next := sq
			next[pos] = draughts.Square{}
			next[mid] = draughts.Square{}
			next[land] = piece
			caps := append(append([]int{}, acc...), mid)

			if !piece.King && backRank(piece.Color, lr) {
				out = append(out, draughts.Move{From: origin, To: land, Captures: caps})
				continue
			}
			out = append(out, captureChains(next, origin, land, piece, caps)...)
		}
	}

	if !extended && len(acc) > 0 {
		out = append(out, draughts.Move{From: origin, To: pos, Captures: acc})
	}
	return out
}

func rowDirs(piece draughts.Square) []int {
	if piece.King {
		return []int{1, -1}
	}
	if piece.Color == draughts.White {
		return []int{1}
	}
	return []int{-1}
}

func backRank(c draughts.Color, row int) bool {
	if c == draughts.White {
		return row == 7
	}
	return row == 0
}
