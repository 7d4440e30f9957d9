package match

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"draughts_arena/internal/bootstrap"
	"draughts_arena/internal/domain/draughts"
	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/domain/user"
	"draughts_arena/internal/engine"
	apperrors "draughts_arena/internal/errors"
	"draughts_arena/internal/statuses"
	"draughts_arena/internal/usecase/ai"
	"draughts_arena/internal/usecase/economy"
)

type fakePlayerStore struct {
	mu      sync.Mutex
	players map[string]user.Player
}

func (s *fakePlayerStore) GetByID(_ context.Context, id string) (user.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return user.Player{}, apperrors.ErrUserNotFound
	}
	return p, nil
}

func (s *fakePlayerStore) GetByEmail(_ context.Context, email string) (user.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.Email == email {
			return p, nil
		}
	}
	return user.Player{}, apperrors.ErrUserNotFound
}

func (s *fakePlayerStore) IncBalance(_ context.Context, id string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.TokenBalance += delta
	s.players[id] = p
	return nil
}

func (s *fakePlayerStore) IncScore(_ context.Context, id string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.TotalScore += delta
	s.players[id] = p
	return nil
}

func (s *fakePlayerStore) SetBalance(_ context.Context, id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.TokenBalance = amount
	s.players[id] = p
	return nil
}

func (s *fakePlayerStore) ListByScore(_ context.Context, ascending bool, limit int) ([]user.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user.Player, 0, len(s.players))
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

type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]matchdomain.Match
	moves   map[string][]matchdomain.MoveRecord
	aiMoves map[string][]matchdomain.MoveRecord
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{
		matches: make(map[string]matchdomain.Match),
		moves:   make(map[string][]matchdomain.MoveRecord),
		aiMoves: make(map[string][]matchdomain.MoveRecord),
	}
}

func (s *fakeMatchStore) CreateMatch(_ context.Context, m matchdomain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	return nil
}

func (s *fakeMatchStore) GetMatchByID(_ context.Context, id string) (matchdomain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return matchdomain.Match{}, apperrors.ErrMatchNotFound
	}
	return m, nil
}

func (s *fakeMatchStore) SaveBoard(_ context.Context, id string, board string, moveCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return apperrors.ErrMatchNotFound
	}
	m.Board = board
	m.MoveCount = moveCount
	s.matches[id] = m
	return nil
}

func (s *fakeMatchStore) FinishMatch(_ context.Context, id string, status string, winnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return apperrors.ErrMatchNotFound
	}
	if m.Status != statuses.StatusInProgress {
		return apperrors.ErrMatchNotInProgress
	}
	m.Status = status
	m.WinnerID = winnerID
	s.matches[id] = m
	return nil
}

func (s *fakeMatchStore) AppendMove(_ context.Context, rec matchdomain.MoveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves[rec.MatchID] = append(s.moves[rec.MatchID], rec)
	return nil
}

func (s *fakeMatchStore) AppendAIMove(_ context.Context, rec matchdomain.MoveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiMoves[rec.MatchID] = append(s.aiMoves[rec.MatchID], rec)
	return nil
}

func (s *fakeMatchStore) CountMoves(_ context.Context, matchID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.moves[matchID]), nil
}

func (s *fakeMatchStore) CountAIMoves(_ context.Context, matchID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.aiMoves[matchID]), nil
}

func (s *fakeMatchStore) LastMove(_ context.Context, matchID string) (matchdomain.MoveRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.moves[matchID]
	if len(recs) == 0 {
		return matchdomain.MoveRecord{}, false, nil
	}
	return recs[len(recs)-1], true, nil
}

func (s *fakeMatchStore) ListMoves(_ context.Context, matchID string) ([]matchdomain.MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := append([]matchdomain.MoveRecord{}, s.moves[matchID]...)
	merged = append(merged, s.aiMoves[matchID]...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged, nil
}

func (s *fakeMatchStore) ListFinishedByPlayer(_ context.Context, playerID string, since *time.Time) ([]matchdomain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []matchdomain.Match
	for _, m := range s.matches {
		if m.Status == statuses.StatusInProgress {
			continue
		}
		if m.Player1ID != playerID && m.Player2ID != playerID {
			continue
		}
		if since != nil && m.StartedAt.Before(*since) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *fakeMatchStore) DeleteMatch(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[matchID]; !ok {
		return apperrors.ErrMatchNotFound
	}
	delete(s.matches, matchID)
	delete(s.moves, matchID)
	delete(s.aiMoves, matchID)
	return nil
}

type fixture struct {
	players *fakePlayerStore
	store   *fakeMatchStore
	uc      *MatchUseCase
}

func newFixture() *fixture {
	log := zap.NewNop().Sugar()
	players := &fakePlayerStore{players: make(map[string]user.Player)}
	store := newFakeMatchStore()
	cfg := bootstrap.Config{
		MatchCreationFee: 0.45,
		MoveFee:          0.0125,
		AiTimeoutMs:      5000,
		PageLimitPlayers: 50,
	}
	uc := NewMatchUseCase(cfg, log, store, economy.NewLedger(players, log), engine.Factory{}, ai.NewGenerator(log, 5*time.Second))
	return &fixture{players: players, store: store, uc: uc}
}

func (f *fixture) addPlayer(id string, balance float64) {
	f.players.players[id] = user.Player{
		ID:           id,
		Username:     id,
		Email:        id + "@example.com",
		Role:         user.RoleUser,
		TokenBalance: balance,
	}
}

func (f *fixture) balance(t *testing.T, id string) float64 {
	t.Helper()
	p, err := f.players.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("player %s: %v", id, err)
	}
	return p.TokenBalance
}

func (f *fixture) score(t *testing.T, id string) float64 {
	t.Helper()
	p, err := f.players.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("player %s: %v", id, err)
	}
	return p.TotalScore
}

func (f *fixture) match(t *testing.T, id string) matchdomain.Match {
	t.Helper()
	m, err := f.store.GetMatchByID(context.Background(), id)
	if err != nil {
		t.Fatalf("match %s: %v", id, err)
	}
	return m
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCreateMatchRequiresExactlyOneOpponentKind(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	ctx := context.Background()

	cases := []matchdomain.CreateMatchRequest{
		{},
		{OpponentEmail: "p2@example.com", AILevel: matchdomain.AILevelEasy},
		{AILevel: "grandmaster"},
	}
	for _, req := range cases {
		if _, err := f.uc.CreateMatch(ctx, "p1", req); !errors.Is(err, apperrors.ErrBadMatchSetup) {
			t.Fatalf("CreateMatch(%+v) error = %v, want ErrBadMatchSetup", req, err)
		}
	}
}

func TestCreateMatchAgainstAIChargesFee(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)

	m, err := f.uc.CreateMatch(context.Background(), "p1", matchdomain.CreateMatchRequest{AILevel: matchdomain.AILevelEasy})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}
	if m.Status != statuses.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", m.Status)
	}
	if m.Player1ID != "p1" || m.Player2ID != "" {
		t.Fatalf("unexpected participants: %+v", m)
	}
	if want := draughts.EncodeBoard(engine.New().Snapshot()); m.Board != want {
		t.Fatalf("board = %q, want initial position", m.Board)
	}
	if got := f.balance(t, "p1"); !closeTo(got, 9.55) {
		t.Fatalf("balance after creation = %v, want 9.55", got)
	}
}

func TestCreateMatchInsufficientBalance(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 0.4)

	_, err := f.uc.CreateMatch(context.Background(), "p1", matchdomain.CreateMatchRequest{AILevel: matchdomain.AILevelEasy})
	if !errors.Is(err, apperrors.ErrInsufficientTokens) {
		t.Fatalf("error = %v, want ErrInsufficientTokens", err)
	}
	if got := f.balance(t, "p1"); !closeTo(got, 0.4) {
		t.Fatalf("rejected creation changed the balance: %v", got)
	}
}

func TestCreateMatchResolvesOpponentByEmail(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	ctx := context.Background()

	m, err := f.uc.CreateMatch(ctx, "p1", matchdomain.CreateMatchRequest{OpponentEmail: "p2@example.com"})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}
	if m.Player2ID != "p2" {
		t.Fatalf("player2 = %q, want p2", m.Player2ID)
	}

	_, err = f.uc.CreateMatch(ctx, "p1", matchdomain.CreateMatchRequest{OpponentEmail: "ghost@example.com"})
	if !errors.Is(err, apperrors.ErrOpponentNotFound) {
		t.Fatalf("error = %v, want ErrOpponentNotFound", err)
	}
}

func (f *fixture) newPvPMatch(t *testing.T, p1, p2 string) string {
	t.Helper()
	m, err := f.uc.CreateMatch(context.Background(), p1, matchdomain.CreateMatchRequest{OpponentEmail: p2 + "@example.com"})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}
	return m.ID
}

func TestExecuteMoveRejectsOutsiders(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	f.addPlayer("intruder", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	_, err := f.uc.ExecuteMove(context.Background(), id, "intruder", matchdomain.MoveRequest{From: "A3", To: "B4"})
	if !errors.Is(err, apperrors.ErrNotParticipant) {
		t.Fatalf("error = %v, want ErrNotParticipant", err)
	}
}

func TestExecuteMoveRequiresPositiveBalance(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 0.45)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	// creation fee drained p1 to exactly zero
	_, err := f.uc.ExecuteMove(context.Background(), id, "p1", matchdomain.MoveRequest{From: "A3", To: "B4"})
	if !errors.Is(err, apperrors.ErrInsufficientTokens) {
		t.Fatalf("error = %v, want ErrInsufficientTokens", err)
	}
}

func TestExecuteMoveRejectsFinishedMatch(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.store.matches["m1"] = matchdomain.Match{
		ID:        "m1",
		Player1ID: "p1",
		Status:    statuses.StatusCompleted,
		Board:     draughts.EncodeBoard(engine.New().Snapshot()),
	}

	_, err := f.uc.ExecuteMove(context.Background(), "m1", "p1", matchdomain.MoveRequest{From: "A3", To: "B4"})
	if !errors.Is(err, apperrors.ErrMatchNotInProgress) {
		t.Fatalf("error = %v, want ErrMatchNotInProgress", err)
	}
}

func TestExecuteMoveRejectsCorruptBoard(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.store.matches["m1"] = matchdomain.Match{
		ID:        "m1",
		Player1ID: "p1",
		Status:    statuses.StatusInProgress,
		Board:     "not a board",
	}

	_, err := f.uc.ExecuteMove(context.Background(), "m1", "p1", matchdomain.MoveRequest{From: "A3", To: "B4"})
	if !errors.Is(err, apperrors.ErrCorruptBoard) {
		t.Fatalf("error = %v, want ErrCorruptBoard", err)
	}
}

func TestExecuteMoveRejectsOutOfTurn(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	// B6-A5 is a legal black move, but white has not moved yet
	_, err := f.uc.ExecuteMove(context.Background(), id, "p2", matchdomain.MoveRequest{From: "B6", To: "A5"})
	if !errors.Is(err, apperrors.ErrNotYourTurn) {
		t.Fatalf("error = %v, want ErrNotYourTurn", err)
	}
}

func TestExecuteMoveRejectionHasNoSideEffects(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")
	before := f.match(t, id)
	balanceBefore := f.balance(t, "p1")

	_, err := f.uc.ExecuteMove(context.Background(), id, "p1", matchdomain.MoveRequest{From: "A3", To: "A5"})
	if !errors.Is(err, apperrors.ErrIllegalMove) {
		t.Fatalf("error = %v, want ErrIllegalMove", err)
	}

	after := f.match(t, id)
	if after != before {
		t.Fatalf("rejected move changed the match:\n got %+v\nwant %+v", after, before)
	}
	if got := f.balance(t, "p1"); !closeTo(got, balanceBefore) {
		t.Fatalf("rejected move changed the balance: %v", got)
	}
	if n, _ := f.store.CountMoves(context.Background(), id); n != 0 {
		t.Fatalf("rejected move was recorded, count = %d", n)
	}
}

func TestExecuteMoveDuplicateGuard(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	// a replayed request carries the same origin and destination as the
	// previously recorded move
	f.store.moves[id] = []matchdomain.MoveRecord{{MatchID: id, Seq: 1, From: "A3", To: "B4"}}

	_, err := f.uc.ExecuteMove(context.Background(), id, "p1", matchdomain.MoveRequest{From: "a3", To: "b4"})
	if !errors.Is(err, apperrors.ErrRepeatedMove) {
		t.Fatalf("error = %v, want ErrRepeatedMove", err)
	}
}

func TestExecuteMoveAdvancesPvPMatch(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	resp, err := f.uc.ExecuteMove(context.Background(), id, "p1", matchdomain.MoveRequest{From: "A3", To: "B4"})
	if err != nil {
		t.Fatalf("ExecuteMove error = %v", err)
	}
	if resp.Status != statuses.StatusInProgress || resp.AIDescription != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	m := f.match(t, id)
	if m.MoveCount != 1 {
		t.Fatalf("move count = %d, want 1", m.MoveCount)
	}
	board, err := draughts.DecodeBoard(m.Board)
	if err != nil {
		t.Fatalf("persisted board is corrupt: %v", err)
	}
	if board.Turn != draughts.Black {
		t.Fatalf("turn after white move = %s, want black", board.Turn)
	}
	if got := f.balance(t, "p1"); !closeTo(got, 10-0.45-0.0125) {
		t.Fatalf("balance = %v, want %v", got, 10-0.45-0.0125)
	}
}

func TestExecuteMoveAgainstAIRepliesInSameCall(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)

	m, err := f.uc.CreateMatch(context.Background(), "p1", matchdomain.CreateMatchRequest{AILevel: matchdomain.AILevelEasy})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}

	resp, err := f.uc.ExecuteMove(context.Background(), m.ID, "p1", matchdomain.MoveRequest{From: "A3", To: "B4"})
	if err != nil {
		t.Fatalf("ExecuteMove error = %v", err)
	}
	if resp.AIDescription == "" {
		t.Fatal("expected the bot's reply in the response")
	}
	if resp.Status != statuses.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", resp.Status)
	}

	board, err := draughts.DecodeBoard(resp.Board)
	if err != nil {
		t.Fatalf("response board is corrupt: %v", err)
	}
	if board.Turn != draughts.White {
		t.Fatalf("turn after the bot's reply = %s, want white", board.Turn)
	}

	if f.match(t, m.ID).MoveCount != 2 {
		t.Fatalf("move count = %d, want 2", f.match(t, m.ID).MoveCount)
	}
	aiRecs := f.store.aiMoves[m.ID]
	if len(aiRecs) != 1 || aiRecs[0].Seq != 1 || aiRecs[0].PlayerID != "" {
		t.Fatalf("unexpected ai move ledger: %+v", aiRecs)
	}
}

func TestExecuteMoveAIMovesAreFree(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 1.0)

	m, err := f.uc.CreateMatch(context.Background(), "p1", matchdomain.CreateMatchRequest{AILevel: matchdomain.AILevelEasy})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}
	if got := f.balance(t, "p1"); !closeTo(got, 0.55) {
		t.Fatalf("balance after creation = %v, want 0.55", got)
	}

	if _, err := f.uc.ExecuteMove(context.Background(), m.ID, "p1", matchdomain.MoveRequest{From: "A3", To: "B4"}); err != nil {
		t.Fatalf("ExecuteMove error = %v", err)
	}
	// only the human move is charged, the bot's reply is not
	if got := f.balance(t, "p1"); !closeTo(got, 0.5375) {
		t.Fatalf("balance after one move = %v, want 0.5375", got)
	}
}

func TestExecuteMoveWinCompletesMatch(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)

	var b draughts.Board
	b.Turn = draughts.White
	b.Squares[mustIndex(t, "E3")] = draughts.Square{Occupied: true, Color: draughts.White}
	b.Squares[mustIndex(t, "F4")] = draughts.Square{Occupied: true, Color: draughts.Black}
	f.store.matches["m1"] = matchdomain.Match{
		ID:        "m1",
		Player1ID: "p1",
		Player2ID: "p2",
		Status:    statuses.StatusInProgress,
		Board:     draughts.EncodeBoard(b),
		MoveCount: 8,
	}

	resp, err := f.uc.ExecuteMove(context.Background(), "m1", "p1", matchdomain.MoveRequest{From: "E3", To: "G5"})
	if err != nil {
		t.Fatalf("ExecuteMove error = %v", err)
	}
	if resp.Status != statuses.StatusCompleted || resp.WinnerID != "p1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	m := f.match(t, "m1")
	if m.Status != statuses.StatusCompleted || m.WinnerID != "p1" || m.MoveCount != 9 {
		t.Fatalf("unexpected persisted match: %+v", m)
	}
	if got := f.score(t, "p1"); !closeTo(got, economy.WinScoreBonus) {
		t.Fatalf("winner score = %v, want %v", got, economy.WinScoreBonus)
	}
	if got := f.score(t, "p2"); !closeTo(got, 0) {
		t.Fatalf("loser score = %v, want 0", got)
	}
}

func TestConcurrentMovesApplyExactlyOne(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	openings := []matchdomain.MoveRequest{
		{From: "A3", To: "B4"},
		{From: "C3", To: "D4"},
		{From: "E3", To: "F4"},
		{From: "G3", To: "H4"},
	}

	var wg sync.WaitGroup
	results := make(chan error, len(openings))
	for _, req := range openings {
		wg.Add(1)
		go func(req matchdomain.MoveRequest) {
			defer wg.Done()
			_, err := f.uc.ExecuteMove(context.Background(), id, "p1", req)
			results <- err
		}(req)
	}
	wg.Wait()
	close(results)

	applied, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			applied++
		case errors.Is(err, apperrors.ErrNotYourTurn):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if applied != 1 || rejected != len(openings)-1 {
		t.Fatalf("applied = %d, rejected = %d, want exactly one applied", applied, rejected)
	}
	if m := f.match(t, id); m.MoveCount != 1 {
		t.Fatalf("move count = %d, want 1", m.MoveCount)
	}
}

func TestAbandonMatchPvP(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	resp, err := f.uc.AbandonMatch(context.Background(), id, "p1")
	if err != nil {
		t.Fatalf("AbandonMatch error = %v", err)
	}
	if resp.WinnerID != "p2" {
		t.Fatalf("winner = %q, want p2", resp.WinnerID)
	}

	m := f.match(t, id)
	if m.Status != statuses.StatusAbandoned || m.WinnerID != "p2" {
		t.Fatalf("unexpected persisted match: %+v", m)
	}
	if got := f.score(t, "p1"); !closeTo(got, economy.AbandonPenalty) {
		t.Fatalf("abandoning player score = %v, want %v", got, economy.AbandonPenalty)
	}
	if got := f.score(t, "p2"); !closeTo(got, economy.WinScoreBonus) {
		t.Fatalf("opponent score = %v, want %v", got, economy.WinScoreBonus)
	}
}

func TestAbandonMatchAgainstAIHasNoWinner(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)

	m, err := f.uc.CreateMatch(context.Background(), "p1", matchdomain.CreateMatchRequest{AILevel: matchdomain.AILevelNormal})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}

	resp, err := f.uc.AbandonMatch(context.Background(), m.ID, "p1")
	if err != nil {
		t.Fatalf("AbandonMatch error = %v", err)
	}
	if resp.WinnerID != "" {
		t.Fatalf("winner = %q, want none", resp.WinnerID)
	}
	if got := f.match(t, m.ID); got.Status != statuses.StatusAbandoned || got.WinnerID != "" {
		t.Fatalf("unexpected persisted match: %+v", got)
	}
	if got := f.score(t, "p1"); !closeTo(got, economy.AbandonPenalty) {
		t.Fatalf("score = %v, want %v", got, economy.AbandonPenalty)
	}
}

func TestAbandonMatchRejectsFinishedMatch(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.addPlayer("p2", 10)
	id := f.newPvPMatch(t, "p1", "p2")

	if _, err := f.uc.AbandonMatch(context.Background(), id, "p1"); err != nil {
		t.Fatalf("first abandon error = %v", err)
	}
	if _, err := f.uc.AbandonMatch(context.Background(), id, "p2"); !errors.Is(err, apperrors.ErrMatchNotInProgress) {
		t.Fatalf("error = %v, want ErrMatchNotInProgress", err)
	}
}

func TestListMatchesAnnotatesOutcome(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	now := time.Now()
	f.store.matches["won"] = matchdomain.Match{
		ID: "won", Player1ID: "p1", Player2ID: "p2",
		Status: statuses.StatusCompleted, WinnerID: "p1", StartedAt: now,
	}
	f.store.matches["lost"] = matchdomain.Match{
		ID: "lost", Player1ID: "p2", Player2ID: "p1",
		Status: statuses.StatusAbandoned, WinnerID: "p2", StartedAt: now,
	}
	f.store.matches["running"] = matchdomain.Match{
		ID: "running", Player1ID: "p1",
		Status: statuses.StatusInProgress, StartedAt: now,
	}

	summaries, err := f.uc.ListMatches(context.Background(), "p1", nil)
	if err != nil {
		t.Fatalf("ListMatches error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2 (in-progress excluded)", len(summaries))
	}
	for _, s := range summaries {
		if s.ID == "won" && s.Outcome != "won" {
			t.Fatalf("match %s outcome = %q", s.ID, s.Outcome)
		}
		if s.ID == "lost" && s.Outcome != "lost" {
			t.Fatalf("match %s outcome = %q", s.ID, s.Outcome)
		}
	}

	cutoff := now.Add(time.Hour)
	summaries, err = f.uc.ListMatches(context.Background(), "p1", &cutoff)
	if err != nil {
		t.Fatalf("ListMatches error = %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("summaries after cutoff = %d, want 0", len(summaries))
	}
}

func TestDeleteMatchRequiresAdmin(t *testing.T) {
	f := newFixture()
	f.addPlayer("p1", 10)
	f.players.players["boss"] = user.Player{ID: "boss", Role: user.RoleAdmin}

	m, err := f.uc.CreateMatch(context.Background(), "p1", matchdomain.CreateMatchRequest{AILevel: matchdomain.AILevelEasy})
	if err != nil {
		t.Fatalf("CreateMatch error = %v", err)
	}

	if err := f.uc.DeleteMatch(context.Background(), m.ID, "p1"); !errors.Is(err, apperrors.ErrNotAdmin) {
		t.Fatalf("error = %v, want ErrNotAdmin", err)
	}
	if err := f.uc.DeleteMatch(context.Background(), m.ID, "boss"); err != nil {
		t.Fatalf("DeleteMatch error = %v", err)
	}
	if _, err := f.store.GetMatchByID(context.Background(), m.ID); !errors.Is(err, apperrors.ErrMatchNotFound) {
		t.Fatalf("match still present after delete: %v", err)
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
