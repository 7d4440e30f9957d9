package economy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"draughts_arena/internal/domain/user"
	"draughts_arena/internal/errors"
	"draughts_arena/internal/lockmanager"
)

// Reference score policy: a PvP win is worth one point, walking away from a
// running match costs half a point. AI match outcomes move no score.
const (
	WinScoreBonus  = 1.0
	AbandonPenalty = -0.5
)

type PlayerStore interface {
	GetByID(ctx context.Context, id string) (user.Player, error)
	GetByEmail(ctx context.Context, email string) (user.Player, error)
	IncBalance(ctx context.Context, id string, delta float64) error
	IncScore(ctx context.Context, id string, delta float64) error
	SetBalance(ctx context.Context, id string, amount float64) error
	ListByScore(ctx context.Context, ascending bool, limit int) ([]user.Player, error)
}

// Ledger owns every mutation of a player's token balance and score. Writes to
// one player are serialized through the keyed mutex so that two matches
// finishing at the same time cannot lose an update.
type Ledger struct {
	store PlayerStore
	locks *lockmanager.KeyedMutex
	log   *zap.SugaredLogger
}

func NewLedger(store PlayerStore, log *zap.SugaredLogger) *Ledger {
	return &Ledger{
		store: store,
		locks: lockmanager.New(),
		log:   log,
	}
}

func (l *Ledger) GetPlayer(ctx context.Context, id string) (user.Player, error) {
	return l.store.GetByID(ctx, id)
}

func (l *Ledger) GetPlayerByEmail(ctx context.Context, email string) (user.Player, error) {
	return l.store.GetByEmail(ctx, email)
}

// Debit subtracts unconditionally. A balance may go negative mid-match; the
// next paid action is what gets blocked, not this one.
func (l *Ledger) Debit(ctx context.Context, playerID string, amount float64) error {
	l.locks.Lock("player:" + playerID)
	defer l.locks.Unlock("player:" + playerID)

	if err := l.store.IncBalance(ctx, playerID, -amount); err != nil {
		return fmt.Errorf("debit of %v from player %s failed: %w", amount, playerID, err)
	}
	l.log.Infow("player debited", "player_id", playerID, "amount", amount)
	return nil
}

func (l *Ledger) AdjustScore(ctx context.Context, playerID string, delta float64) error {
	l.locks.Lock("player:" + playerID)
	defer l.locks.Unlock("player:" + playerID)

	if err := l.store.IncScore(ctx, playerID, delta); err != nil {
		return fmt.Errorf("score adjust of %v for player %s failed: %w", delta, playerID, err)
	}
	l.log.Infow("score adjusted", "player_id", playerID, "delta", delta)
	return nil
}

// Recharge sets a player's balance to a new value. Admin only.
func (l *Ledger) Recharge(ctx context.Context, adminID, targetEmail string, amount float64) error {
	admin, err := l.store.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.Role != user.RoleAdmin {
		return errors.ErrNotAdmin
	}

	target, err := l.store.GetByEmail(ctx, targetEmail)
	if err != nil {
		return err
	}

	l.locks.Lock("player:" + target.ID)
	defer l.locks.Unlock("player:" + target.ID)

	if err := l.store.SetBalance(ctx, target.ID, amount); err != nil {
		return err
	}
	l.log.Infow("balance recharged", "admin_id", adminID, "player_id", target.ID, "amount", amount)
	return nil
}

func (l *Ledger) Leaderboard(ctx context.Context, order string, limit int) ([]user.LeaderboardEntry, error) {
	ascending := order == "asc"
	players, err := l.store.ListByScore(ctx, ascending, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]user.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, user.LeaderboardEntry{
			Username:   p.Username,
			TotalScore: p.TotalScore,
		})
	}
	return entries, nil
}
