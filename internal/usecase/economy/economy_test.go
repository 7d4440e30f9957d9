package economy

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"go.uber.org/zap"

	"draughts_arena/internal/domain/user"
	apperrors "draughts_arena/internal/errors"
)

type memPlayerStore struct {
	players map[string]user.Player
}

func (s *memPlayerStore) GetByID(_ context.Context, id string) (user.Player, error) {
	p, ok := s.players[id]
	if !ok {
		return user.Player{}, apperrors.ErrUserNotFound
	}
	return p, nil
}

func (s *memPlayerStore) GetByEmail(_ context.Context, email string) (user.Player, error) {
	for _, p := range s.players {
		if p.Email == email {
			return p, nil
		}
	}
	return user.Player{}, apperrors.ErrUserNotFound
}

func (s *memPlayerStore) IncBalance(_ context.Context, id string, delta float64) error {
	p, ok := s.players[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.TokenBalance += delta
	s.players[id] = p
	return nil
}

func (s *memPlayerStore) IncScore(_ context.Context, id string, delta float64) error {
	p, ok := s.players[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.TotalScore += delta
	s.players[id] = p
	return nil
}

func (s *memPlayerStore) SetBalance(_ context.Context, id string, amount float64) error {
	p, ok := s.players[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.TokenBalance = amount
	s.players[id] = p
	return nil
}

func (s *memPlayerStore) ListByScore(_ context.Context, ascending bool, limit int) ([]user.Player, error) {
	var out []user.Player
	for _, p := range s.players {
		if p.Role == user.RoleUser {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].TotalScore < out[j].TotalScore
		}
		return out[i].TotalScore > out[j].TotalScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newLedgerWith(players ...user.Player) (*Ledger, *memPlayerStore) {
	store := &memPlayerStore{players: make(map[string]user.Player)}
	for _, p := range players {
		store.players[p.ID] = p
	}
	return NewLedger(store, zap.NewNop().Sugar()), store
}

func TestDebitAllowsNegativeBalance(t *testing.T) {
	ledger, store := newLedgerWith(user.Player{ID: "p1", Role: user.RoleUser, TokenBalance: 0.01})

	if err := ledger.Debit(context.Background(), "p1", 0.0125); err != nil {
		t.Fatalf("Debit error = %v", err)
	}
	got := store.players["p1"].TokenBalance
	if math.Abs(got-(-0.0025)) > 1e-9 {
		t.Fatalf("balance = %v, want -0.0025", got)
	}
}

func TestRechargeRequiresAdmin(t *testing.T) {
	ledger, store := newLedgerWith(
		user.Player{ID: "p1", Role: user.RoleUser, Email: "p1@example.com", TokenBalance: -1},
		user.Player{ID: "boss", Role: user.RoleAdmin, Email: "boss@example.com"},
	)
	ctx := context.Background()

	if err := ledger.Recharge(ctx, "p1", "p1@example.com", 5); !errors.Is(err, apperrors.ErrNotAdmin) {
		t.Fatalf("error = %v, want ErrNotAdmin", err)
	}
	if err := ledger.Recharge(ctx, "boss", "p1@example.com", 5); err != nil {
		t.Fatalf("Recharge error = %v", err)
	}
	if got := store.players["p1"].TokenBalance; got != 5 {
		t.Fatalf("balance = %v, want 5", got)
	}

	if err := ledger.Recharge(ctx, "boss", "ghost@example.com", 5); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestLeaderboardOrderAndShape(t *testing.T) {
	ledger, _ := newLedgerWith(
		user.Player{ID: "a", Username: "alice", Role: user.RoleUser, TotalScore: 3},
		user.Player{ID: "b", Username: "bob", Role: user.RoleUser, TotalScore: 7},
		user.Player{ID: "boss", Username: "boss", Role: user.RoleAdmin, TotalScore: 99},
	)
	ctx := context.Background()

	entries, err := ledger.Leaderboard(ctx, "desc", 10)
	if err != nil {
		t.Fatalf("Leaderboard error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (admins excluded)", len(entries))
	}
	if entries[0].Username != "bob" || entries[1].Username != "alice" {
		t.Fatalf("unexpected descending order: %+v", entries)
	}

	entries, err = ledger.Leaderboard(ctx, "asc", 10)
	if err != nil {
		t.Fatalf("Leaderboard error = %v", err)
	}
	if entries[0].Username != "alice" {
		t.Fatalf("unexpected ascending order: %+v", entries)
	}
}
