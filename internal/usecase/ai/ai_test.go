package ai

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"draughts_arena/internal/domain/draughts"
	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/engine"
	apperrors "draughts_arena/internal/errors"
)

func newTestGenerator(timeout time.Duration) *Generator {
	return NewGenerator(zap.NewNop().Sugar(), timeout)
}

func containsMove(legal []draughts.Move, mv draughts.Move) bool {
	for _, cand := range legal {
		if cand.From == mv.From && cand.To == mv.To {
			return true
		}
	}
	return false
}

func TestChooseMoveReturnsLegalMove(t *testing.T) {
	g := newTestGenerator(5 * time.Second)

	for _, level := range []string{
		matchdomain.AILevelEasy,
		matchdomain.AILevelNormal,
		matchdomain.AILevelHard,
	} {
		t.Run(level, func(t *testing.T) {
			oracle := engine.New()
			legal := oracle.LegalMoves()

			mv, err := g.ChooseMove(oracle, level)
			if err != nil {
				t.Fatalf("ChooseMove error = %v", err)
			}
			if !containsMove(legal, mv) {
				t.Fatalf("ChooseMove returned illegal move %+v", mv)
			}
		})
	}
}

func TestChooseMoveDoesNotMutateOracle(t *testing.T) {
	g := newTestGenerator(5 * time.Second)
	oracle := engine.New()
	before := oracle.Snapshot()

	if _, err := g.ChooseMove(oracle, matchdomain.AILevelNormal); err != nil {
		t.Fatalf("ChooseMove error = %v", err)
	}
	if oracle.Snapshot() != before {
		t.Fatal("ChooseMove mutated the caller's oracle")
	}
}

func TestChooseMoveTakesForcedCapture(t *testing.T) {
	var b draughts.Board
	b.Turn = draughts.Black
	b.Squares[mustIndex(t, "F4")] = draughts.Square{Occupied: true, Color: draughts.Black}
	b.Squares[mustIndex(t, "E3")] = draughts.Square{Occupied: true, Color: draughts.White}
	b.Squares[mustIndex(t, "H2")] = draughts.Square{Occupied: true, Color: draughts.White}

	g := newTestGenerator(5 * time.Second)
	mv, err := g.ChooseMove(engine.FromBoard(b), matchdomain.AILevelNormal)
	if err != nil {
		t.Fatalf("ChooseMove error = %v", err)
	}
	if mv.From != mustIndex(t, "F4") || mv.To != mustIndex(t, "D2") {
		t.Fatalf("expected the forced capture F4-D2, got %+v", mv)
	}
}

func TestChooseMoveOnFinishedGame(t *testing.T) {
	var b draughts.Board
	b.Turn = draughts.White
	// white to move with no pieces: the game is already lost
	b.Squares[mustIndex(t, "H8")] = draughts.Square{Occupied: true, Color: draughts.Black}

	g := newTestGenerator(5 * time.Second)
	if _, err := g.ChooseMove(engine.FromBoard(b), matchdomain.AILevelEasy); !errors.Is(err, apperrors.ErrNoLegalMoves) {
		t.Fatalf("error = %v, want ErrNoLegalMoves", err)
	}
}

func TestChooseMoveRejectsUnknownLevel(t *testing.T) {
	g := newTestGenerator(5 * time.Second)
	if _, err := g.ChooseMove(engine.New(), "grandmaster"); !errors.Is(err, apperrors.ErrNoLegalMoves) {
		t.Fatalf("error = %v, want ErrNoLegalMoves", err)
	}
}

func TestChooseMoveSearchTimeout(t *testing.T) {
	g := newTestGenerator(-time.Second)
	if _, err := g.ChooseMove(engine.New(), matchdomain.AILevelHard); !errors.Is(err, apperrors.ErrSearchTimeout) {
		t.Fatalf("error = %v, want ErrSearchTimeout", err)
	}
}

func mustIndex(t *testing.T, name string) int {
	t.Helper()
	idx, ok := draughts.SquareIndex(name)
	if !ok {
		t.Fatalf("bad square %q", name)
	}
	return idx
}
