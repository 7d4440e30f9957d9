package ai

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"draughts_arena/internal/domain/draughts"
	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/errors"
)

const (
	manValue  = 1.0
	kingValue = 1.6
	winScore  = 1000.0
)

// Generator picks the bot's move for a match. Easy plays a uniform random
// legal move, the other levels run a bounded-depth alpha-beta search against
// forks of the oracle. The caller's oracle is never mutated.
type Generator struct {
	log     *zap.SugaredLogger
	timeout time.Duration
	rng     *rand.Rand
}

func NewGenerator(log *zap.SugaredLogger, timeout time.Duration) *Generator {
	return &Generator{
		log:     log,
		timeout: timeout,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Generator) ChooseMove(oracle draughts.Oracle, level string) (draughts.Move, error) {
	if oracle.Status() != draughts.StatusOngoing {
		return draughts.Move{}, errors.ErrNoLegalMoves
	}
	moves := oracle.LegalMoves()
	if len(moves) == 0 {
		return draughts.Move{}, errors.ErrNoLegalMoves
	}

	if level == matchdomain.AILevelEasy {
		return moves[g.rng.Intn(len(moves))], nil
	}

	depth, ok := matchdomain.SearchDepth[level]
	if !ok {
		return draughts.Move{}, errors.ErrNoLegalMoves
	}

	deadline := time.Now().Add(g.timeout)
	mover := oracle.Turn()

	best := moves[0]
	bestScore := math.Inf(-1)
	for _, mv := range moves {
		fork := oracle.Fork()
		if err := fork.Apply(mv); err != nil {
			return draughts.Move{}, err
		}
		score, err := g.search(fork, mover, depth-1, math.Inf(-1), math.Inf(1), deadline)
		if err != nil {
			return draughts.Move{}, err
		}
		if score > bestScore {
			bestScore = score
			best = mv
		}
	}

	g.log.Debugw("search finished", "level", level, "depth", depth, "score", bestScore)
	return best, nil
}

// search returns the value of the position from the mover's point of view.
func (g *Generator) search(oracle draughts.Oracle, mover draughts.Color, depth int, alpha, beta float64, deadline time.Time) (float64, error) {
	if time.Now().After(deadline) {
		return 0, errors.ErrSearchTimeout
	}

	switch oracle.Status() {
	case draughts.StatusDraw:
		return 0, nil
	case draughts.StatusWhiteWon:
		return terminalScore(mover, draughts.White, depth), nil
	case draughts.StatusBlackWon:
		return terminalScore(mover, draughts.Black, depth), nil
	}

	if depth == 0 {
		return evaluate(oracle.Snapshot(), mover), nil
	}

	maximizing := oracle.Turn() == mover
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}

	for _, mv := range oracle.LegalMoves() {
		fork := oracle.Fork()
		if err := fork.Apply(mv); err != nil {
			return 0, err
		}
		score, err := g.search(fork, mover, depth-1, alpha, beta, deadline)
		if err != nil {
			return 0, err
		}

		if maximizing {
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best = score
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			break
		}
	}
	return best, nil
}

func terminalScore(mover, winner draughts.Color, depth int) float64 {
	// prefer quicker wins and slower losses
	if mover == winner {
		return winScore + float64(depth)
	}
	return -winScore - float64(depth)
}

func evaluate(b draughts.Board, mover draughts.Color) float64 {
	var score float64
	for i := 0; i < 64; i++ {
		sq := b.Squares[i]
		if !sq.Occupied {
			continue
		}
		v := manValue
		if sq.King {
			v = kingValue
		}
		if sq.Color == mover {
			score += v
		} else {
			score -= v
		}
	}
	return score
}
