package draughts

import (
	"fmt"
	"strconv"
	"strings"
)

// The persisted board snapshot is "<64 squares>:<turn>:<quiet plies>", one
// character per square: '.' empty, 'w'/'b' men, 'W'/'B' kings. Encoding and
// decoding round-trip byte-for-byte, which is what lets the oracle be thrown
// away between requests.

func EncodeBoard(b Board) string {
	var sb strings.Builder
	sb.Grow(64 + 8)
	for i := 0; i < 64; i++ {
		sq := b.Squares[i]
		switch {
		case !sq.Occupied:
			sb.WriteByte('.')
		case sq.Color == White && sq.King:
			sb.WriteByte('W')
		case sq.Color == White:
			sb.WriteByte('w')
		case sq.King:
			sb.WriteByte('B')
		default:
			sb.WriteByte('b')
		}
	}
	sb.WriteByte(':')
	if b.Turn == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(b.QuietPlies))
	return sb.String()
}

func DecodeBoard(s string) (Board, error) {
	var b Board

	parts := strings.Split(s, ":")
	if len(parts) != 3 || len(parts[0]) != 64 {
		return b, fmt.Errorf("malformed board snapshot %q", s)
	}

	for i := 0; i < 64; i++ {
		c := parts[0][i]
		if c == '.' {
			continue
		}
		if !Playable(i) {
			return b, fmt.Errorf("piece on non-playable square %s", SquareName(i))
		}
		switch c {
		case 'w':
			b.Squares[i] = Square{Occupied: true, Color: White}
		case 'W':
			b.Squares[i] = Square{Occupied: true, Color: White, King: true}
		case 'b':
			b.Squares[i] = Square{Occupied: true, Color: Black}
		case 'B':
			b.Squares[i] = Square{Occupied: true, Color: Black, King: true}
		default:
			return b, fmt.Errorf("unknown square descriptor %q at index %d", c, i)
		}
	}

	switch parts[1] {
	case "w":
		b.Turn = White
	case "b":
		b.Turn = Black
	default:
		return b, fmt.Errorf("unknown side to move %q", parts[1])
	}

	quiet, err := strconv.Atoi(parts[2])
	if err != nil || quiet < 0 {
		return b, fmt.Errorf("bad quiet-ply counter %q", parts[2])
	}
	b.QuietPlies = quiet

	return b, nil
}
