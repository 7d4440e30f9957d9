package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"draughts_arena/internal/bootstrap"
	"draughts_arena/internal/domain/draughts"
	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/domain/user"
	"draughts_arena/internal/errors"
	"draughts_arena/internal/lockmanager"
	"draughts_arena/internal/statuses"
	"draughts_arena/internal/usecase/ai"
	"draughts_arena/internal/usecase/economy"
)

type MatchStore interface {
	CreateMatch(ctx context.Context, m matchdomain.Match) error
	GetMatchByID(ctx context.Context, id string) (matchdomain.Match, error)
	SaveBoard(ctx context.Context, id string, board string, moveCount int) error
	FinishMatch(ctx context.Context, id string, status string, winnerID string) error
	AppendMove(ctx context.Context, rec matchdomain.MoveRecord) error
	AppendAIMove(ctx context.Context, rec matchdomain.MoveRecord) error
	CountMoves(ctx context.Context, matchID string) (int, error)
	CountAIMoves(ctx context.Context, matchID string) (int, error)
	LastMove(ctx context.Context, matchID string) (matchdomain.MoveRecord, bool, error)
	ListMoves(ctx context.Context, matchID string) ([]matchdomain.MoveRecord, error)
	ListFinishedByPlayer(ctx context.Context, playerID string, since *time.Time) ([]matchdomain.Match, error)
	DeleteMatch(ctx context.Context, matchID string) error
}

// OracleFactory builds a rules oracle either for a fresh match or from a
// persisted board snapshot.
type OracleFactory interface {
	Initial() draughts.Oracle
	FromBoard(draughts.Board) draughts.Oracle
}

// MatchUseCase is the match session engine: lifecycle transitions, the move
// pipeline and the read-side projections. All writes to one match go through
// the per-match lock.
type MatchUseCase struct {
	cfg     bootstrap.Config
	log     *zap.SugaredLogger
	store   MatchStore
	ledger  *economy.Ledger
	oracles OracleFactory
	bot     *ai.Generator
	locks   *lockmanager.KeyedMutex
}

func NewMatchUseCase(cfg bootstrap.Config, log *zap.SugaredLogger, store MatchStore, ledger *economy.Ledger, oracles OracleFactory, bot *ai.Generator) *MatchUseCase {
	return &MatchUseCase{
		cfg:     cfg,
		log:     log,
		store:   store,
		ledger:  ledger,
		oracles: oracles,
		bot:     bot,
		locks:   lockmanager.New(),
	}
}

// CreateMatch starts a new match for the requester. A match is either PvP
// (opponent email) or PvAI (difficulty level), never both, never neither.
// The creation fee is charged once the match record is persisted.
func (u *MatchUseCase) CreateMatch(ctx context.Context, requesterID string, req matchdomain.CreateMatchRequest) (matchdomain.Match, error) {
	hasOpponent := req.OpponentEmail != ""
	hasAI := req.AILevel != ""
	if hasOpponent == hasAI {
		return matchdomain.Match{}, errors.ErrBadMatchSetup
	}
	if hasAI && !matchdomain.ValidAILevel(req.AILevel) {
		return matchdomain.Match{}, errors.ErrBadMatchSetup
	}

	requester, err := u.ledger.GetPlayer(ctx, requesterID)
	if err != nil {
		return matchdomain.Match{}, err
	}
	if requester.TokenBalance < u.cfg.MatchCreationFee {
		return matchdomain.Match{}, errors.ErrInsufficientTokens
	}

	newMatch := matchdomain.Match{
		ID:        uuid.New().String(),
		Player1ID: requesterID,
		AILevel:   req.AILevel,
		MatchType: req.MatchType,
		Status:    statuses.StatusInProgress,
		Board:     draughts.EncodeBoard(u.oracles.Initial().Snapshot()),
		StartedAt: time.Now(),
	}

	if hasOpponent {
		opponent, err := u.ledger.GetPlayerByEmail(ctx, req.OpponentEmail)
		if err != nil {
			return matchdomain.Match{}, errors.ErrOpponentNotFound
		}
		newMatch.Player2ID = opponent.ID
	}

	if err := u.store.CreateMatch(ctx, newMatch); err != nil {
		return matchdomain.Match{}, fmt.Errorf("%w: create match: %v", errors.ErrInternal, err)
	}
	if err := u.ledger.Debit(ctx, requesterID, u.cfg.MatchCreationFee); err != nil {
		return matchdomain.Match{}, fmt.Errorf("%w: creation fee: %v", errors.ErrInternal, err)
	}

	u.log.Infow("match created", "match_id", newMatch.ID, "player_id", requesterID, "ai_level", req.AILevel)
	return newMatch, nil
}

// ExecuteMove runs the whole pipeline for one human move: preconditions in
// order, oracle validation, application, persistence, debit and, for PvAI
// matches, the bot's reply. Side effects are ordered match save → move append
// → debit; a failure past the match save surfaces as internal and is not
// rolled back.
func (u *MatchUseCase) ExecuteMove(ctx context.Context, matchID, actorID string, req matchdomain.MoveRequest) (matchdomain.MoveResponse, error) {
	u.locks.Lock("match:" + matchID)
	defer u.locks.Unlock("match:" + matchID)

	from := strings.ToUpper(strings.TrimSpace(req.From))
	to := strings.ToUpper(strings.TrimSpace(req.To))

	actor, err := u.ledger.GetPlayer(ctx, actorID)
	if err != nil {
		return matchdomain.MoveResponse{}, err
	}
	if actor.TokenBalance <= 0 {
		return matchdomain.MoveResponse{}, errors.ErrInsufficientTokens
	}

	m, err := u.store.GetMatchByID(ctx, matchID)
	if err != nil {
		return matchdomain.MoveResponse{}, err
	}
	if !m.IsParticipant(actorID) {
		return matchdomain.MoveResponse{}, errors.ErrNotParticipant
	}
	if statuses.IsTerminal(m.Status) {
		return matchdomain.MoveResponse{}, errors.ErrMatchNotInProgress
	}

	board, err := draughts.DecodeBoard(m.Board)
	if err != nil {
		u.log.Errorw("corrupt board snapshot", "match_id", matchID, "error", err)
		return matchdomain.MoveResponse{}, errors.ErrCorruptBoard
	}
	oracle := u.oracles.FromBoard(board)

	if colorOf(m, actorID) != oracle.Turn() {
		return matchdomain.MoveResponse{}, errors.ErrNotYourTurn
	}

	mv, ok := findMove(oracle.LegalMoves(), from, to)
	if !ok {
		return matchdomain.MoveResponse{}, errors.ErrIllegalMove
	}

	// duplicate-submission guard: the same origin/destination twice in a row
	// is treated as a replayed request, not a game position check
	last, found, err := u.store.LastMove(ctx, matchID)
	if err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: last move lookup: %v", errors.ErrInternal, err)
	}
	if found && last.From == from && last.To == to {
		return matchdomain.MoveResponse{}, errors.ErrRepeatedMove
	}

	piece := oracle.Snapshot().Squares[mv.From]
	if err := oracle.Apply(mv); err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: apply: %v", errors.ErrInternal, err)
	}
	promoted := oracle.Snapshot().Squares[mv.To].King && !piece.King
	desc := describeMove(piece, mv, promoted)

	newBoard := draughts.EncodeBoard(oracle.Snapshot())
	status := oracle.Status()

	seq, err := u.nextSeq(ctx, matchID)
	if err != nil {
		return matchdomain.MoveResponse{}, err
	}
	rec := matchdomain.MoveRecord{
		ID:        uuid.New().String(),
		MatchID:   matchID,
		Seq:       seq,
		PlayerID:  actorID,
		Color:     string(piece.Color),
		From:      from,
		To:        to,
		Piece:     pieceName(piece),
		Captured:  len(mv.Captures) > 0,
		Promoted:  promoted,
		Board:     newBoard,
		CreatedAt: time.Now(),
	}

	if status != draughts.StatusOngoing {
		if err := u.completeMatch(ctx, m, newBoard, m.MoveCount+1, status); err != nil {
			return matchdomain.MoveResponse{}, err
		}
		if err := u.store.AppendMove(ctx, rec); err != nil {
			return matchdomain.MoveResponse{}, fmt.Errorf("%w: append move: %v", errors.ErrInternal, err)
		}
		winnerID := u.winnerOf(m, status)
		u.log.Infow("match completed by move", "match_id", matchID, "actor_id", actorID, "winner_id", winnerID)
		return matchdomain.MoveResponse{
			Description: desc + ", " + terminalText(status),
			Status:      statuses.StatusCompleted,
			WinnerID:    winnerID,
			Board:       newBoard,
		}, nil
	}

	if err := u.store.SaveBoard(ctx, matchID, newBoard, m.MoveCount+1); err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: save board: %v", errors.ErrInternal, err)
	}
	if err := u.store.AppendMove(ctx, rec); err != nil {
		u.log.Errorw("board advanced but move append failed", "match_id", matchID, "seq", seq, "error", err)
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: append move: %v", errors.ErrInternal, err)
	}
	if err := u.ledger.Debit(ctx, actorID, u.cfg.MoveFee); err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: move fee: %v", errors.ErrInternal, err)
	}

	resp := matchdomain.MoveResponse{
		Description: desc,
		Status:      statuses.StatusInProgress,
		Board:       newBoard,
	}

	if !m.IsAgainstAI() {
		return resp, nil
	}

	aiResp, err := u.playAITurn(ctx, m, oracle)
	if err != nil {
		return matchdomain.MoveResponse{}, err
	}
	resp.AIDescription = aiResp.AIDescription
	resp.Status = aiResp.Status
	resp.WinnerID = aiResp.WinnerID
	resp.Board = aiResp.Board
	return resp, nil
}

// playAITurn is invoked with the oracle already advanced past the human move
// and the match still in progress.
func (u *MatchUseCase) playAITurn(ctx context.Context, m matchdomain.Match, oracle draughts.Oracle) (matchdomain.MoveResponse, error) {
	u.log.Infow("ai turn", "match_id", m.ID, "level", m.AILevel)

	mv, err := u.bot.ChooseMove(oracle, m.AILevel)
	if err != nil {
		u.log.Errorw("ai move generation failed", "match_id", m.ID, "level", m.AILevel, "error", err)
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: ai move: %v", errors.ErrInternal, err)
	}

	piece := oracle.Snapshot().Squares[mv.From]
	if err := oracle.Apply(mv); err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: ai apply: %v", errors.ErrInternal, err)
	}
	promoted := oracle.Snapshot().Squares[mv.To].King && !piece.King
	desc := describeMove(piece, mv, promoted)

	newBoard := draughts.EncodeBoard(oracle.Snapshot())
	status := oracle.Status()

	aiCount, err := u.store.CountAIMoves(ctx, m.ID)
	if err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: ai move count: %v", errors.ErrInternal, err)
	}
	rec := matchdomain.MoveRecord{
		ID:        uuid.New().String(),
		MatchID:   m.ID,
		Seq:       aiCount + 1,
		Color:     string(piece.Color),
		From:      draughts.SquareName(mv.From),
		To:        draughts.SquareName(mv.To),
		Piece:     pieceName(piece),
		Captured:  len(mv.Captures) > 0,
		Promoted:  promoted,
		Board:     newBoard,
		CreatedAt: time.Now(),
	}

	if status != draughts.StatusOngoing {
		if err := u.completeMatch(ctx, m, newBoard, m.MoveCount+2, status); err != nil {
			return matchdomain.MoveResponse{}, err
		}
		if err := u.store.AppendAIMove(ctx, rec); err != nil {
			return matchdomain.MoveResponse{}, fmt.Errorf("%w: append ai move: %v", errors.ErrInternal, err)
		}
		return matchdomain.MoveResponse{
			AIDescription: desc + ", " + terminalText(status),
			Status:        statuses.StatusCompleted,
			WinnerID:      u.winnerOf(m, status),
			Board:         newBoard,
		}, nil
	}

	if err := u.store.SaveBoard(ctx, m.ID, newBoard, m.MoveCount+2); err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: save board after ai move: %v", errors.ErrInternal, err)
	}
	if err := u.store.AppendAIMove(ctx, rec); err != nil {
		return matchdomain.MoveResponse{}, fmt.Errorf("%w: append ai move: %v", errors.ErrInternal, err)
	}

	return matchdomain.MoveResponse{
		AIDescription: desc,
		Status:        statuses.StatusInProgress,
		Board:         newBoard,
	}, nil
}

// completeMatch persists the final board and runs the completion transition,
// including the PvP win bonus.
func (u *MatchUseCase) completeMatch(ctx context.Context, m matchdomain.Match, board string, moveCount int, status draughts.Status) error {
	winnerID := u.winnerOf(m, status)

	if err := u.store.SaveBoard(ctx, m.ID, board, moveCount); err != nil {
		return fmt.Errorf("%w: save final board: %v", errors.ErrInternal, err)
	}
	if err := u.store.FinishMatch(ctx, m.ID, statuses.StatusCompleted, winnerID); err != nil {
		return fmt.Errorf("%w: finish match: %v", errors.ErrInternal, err)
	}

	if !m.IsAgainstAI() && winnerID != "" {
		if err := u.ledger.AdjustScore(ctx, winnerID, economy.WinScoreBonus); err != nil {
			return fmt.Errorf("%w: win bonus: %v", errors.ErrInternal, err)
		}
	}
	return nil
}

// AbandonMatch forfeits an in-progress match. The abandoning side takes the
// score penalty; in PvP the opponent wins and gets the bonus, in PvAI the win
// is assigned to nobody but the penalty still applies.
func (u *MatchUseCase) AbandonMatch(ctx context.Context, matchID, actorID string) (matchdomain.AbandonResponse, error) {
	u.locks.Lock("match:" + matchID)
	defer u.locks.Unlock("match:" + matchID)

	if _, err := u.ledger.GetPlayer(ctx, actorID); err != nil {
		return matchdomain.AbandonResponse{}, err
	}

	m, err := u.store.GetMatchByID(ctx, matchID)
	if err != nil {
		return matchdomain.AbandonResponse{}, err
	}
	if !m.IsParticipant(actorID) {
		return matchdomain.AbandonResponse{}, errors.ErrNotParticipant
	}
	if statuses.IsTerminal(m.Status) {
		return matchdomain.AbandonResponse{}, errors.ErrMatchNotInProgress
	}

	winnerID := ""
	if !m.IsAgainstAI() {
		winnerID = m.Player1ID
		if actorID == m.Player1ID {
			winnerID = m.Player2ID
		}
	}

	if err := u.store.FinishMatch(ctx, matchID, statuses.StatusAbandoned, winnerID); err != nil {
		return matchdomain.AbandonResponse{}, fmt.Errorf("%w: abandon: %v", errors.ErrInternal, err)
	}
	if err := u.ledger.AdjustScore(ctx, actorID, economy.AbandonPenalty); err != nil {
		return matchdomain.AbandonResponse{}, fmt.Errorf("%w: abandon penalty: %v", errors.ErrInternal, err)
	}
	if winnerID != "" {
		if err := u.ledger.AdjustScore(ctx, winnerID, economy.WinScoreBonus); err != nil {
			return matchdomain.AbandonResponse{}, fmt.Errorf("%w: abandon bonus: %v", errors.ErrInternal, err)
		}
	}

	u.log.Infow("match abandoned", "match_id", matchID, "actor_id", actorID, "winner_id", winnerID)

	desc := "match abandoned"
	if winnerID != "" {
		desc = "match abandoned, win assigned to the opponent"
	}
	return matchdomain.AbandonResponse{Description: desc, WinnerID: winnerID}, nil
}

// EvaluateMatch returns a textual status for a participant.
func (u *MatchUseCase) EvaluateMatch(ctx context.Context, matchID, actorID string) (string, error) {
	m, err := u.store.GetMatchByID(ctx, matchID)
	if err != nil {
		return "", err
	}
	if !m.IsParticipant(actorID) {
		return "", errors.ErrNotParticipant
	}

	switch m.Status {
	case statuses.StatusInProgress:
		board, err := draughts.DecodeBoard(m.Board)
		if err != nil {
			u.log.Errorw("corrupt board snapshot", "match_id", matchID, "error", err)
			return "", errors.ErrCorruptBoard
		}
		return fmt.Sprintf("in progress, %s to move, %d moves played", board.Turn, m.MoveCount), nil
	case statuses.StatusCompleted:
		if m.WinnerID == "" && m.IsAgainstAI() {
			return "completed, result decided against the human player or drawn", nil
		}
		if m.WinnerID == "" {
			return "completed, draw", nil
		}
		if m.WinnerID == actorID {
			return "completed, you won", nil
		}
		return "completed, you lost", nil
	default:
		if m.WinnerID == actorID {
			return "abandoned by the opponent, you won", nil
		}
		return "abandoned", nil
	}
}

// MoveHistory merges the human and AI move ledgers ordered by play.
func (u *MatchUseCase) MoveHistory(ctx context.Context, matchID string) ([]matchdomain.MoveRecord, error) {
	if _, err := u.store.GetMatchByID(ctx, matchID); err != nil {
		return nil, err
	}
	return u.store.ListMoves(ctx, matchID)
}

// ListMatches returns the requester's finished matches, optionally filtered
// by start date, each annotated won/lost relative to the requester.
func (u *MatchUseCase) ListMatches(ctx context.Context, actorID string, since *time.Time) ([]matchdomain.MatchSummary, error) {
	if _, err := u.ledger.GetPlayer(ctx, actorID); err != nil {
		return nil, err
	}

	found, err := u.store.ListFinishedByPlayer(ctx, actorID, since)
	if err != nil {
		return nil, err
	}

	summaries := make([]matchdomain.MatchSummary, 0, len(found))
	for _, m := range found {
		outcome := "lost"
		if m.WinnerID == actorID {
			outcome = "won"
		}
		summaries = append(summaries, matchdomain.MatchSummary{
			ID:        m.ID,
			Status:    m.Status,
			MatchType: m.MatchType,
			Outcome:   outcome,
			MoveCount: m.MoveCount,
			StartedAt: m.StartedAt,
		})
	}
	return summaries, nil
}

func (u *MatchUseCase) Leaderboard(ctx context.Context, order string) ([]user.LeaderboardEntry, error) {
	return u.ledger.Leaderboard(ctx, order, u.cfg.PageLimitPlayers)
}

// DeleteMatch removes a match and cascades to its move records. Admin only.
func (u *MatchUseCase) DeleteMatch(ctx context.Context, matchID, actorID string) error {
	actor, err := u.ledger.GetPlayer(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != user.RoleAdmin {
		return errors.ErrNotAdmin
	}

	u.locks.Lock("match:" + matchID)
	defer u.locks.Unlock("match:" + matchID)

	if _, err := u.store.GetMatchByID(ctx, matchID); err != nil {
		return err
	}
	if err := u.store.DeleteMatch(ctx, matchID); err != nil {
		return fmt.Errorf("%w: delete match: %v", errors.ErrInternal, err)
	}
	u.log.Infow("match deleted", "match_id", matchID, "admin_id", actorID)
	return nil
}

func (u *MatchUseCase) nextSeq(ctx context.Context, matchID string) (int, error) {
	count, err := u.store.CountMoves(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("%w: move count: %v", errors.ErrInternal, err)
	}
	return count + 1, nil
}

// winnerOf maps the oracle's winning side to a player id. Player one always
// plays white; the AI (or player two) plays black. A draw, or a win by the
// bot, maps to no player.
func (u *MatchUseCase) winnerOf(m matchdomain.Match, status draughts.Status) string {
	switch status {
	case draughts.StatusWhiteWon:
		return m.Player1ID
	case draughts.StatusBlackWon:
		return m.Player2ID
	default:
		return ""
	}
}

func colorOf(m matchdomain.Match, playerID string) draughts.Color {
	if playerID == m.Player1ID {
		return draughts.White
	}
	return draughts.Black
}

func findMove(legal []draughts.Move, from, to string) (draughts.Move, bool) {
	fromIdx, okFrom := draughts.SquareIndex(from)
	toIdx, okTo := draughts.SquareIndex(to)
	if !okFrom || !okTo {
		return draughts.Move{}, false
	}
	for _, mv := range legal {
		if mv.From == fromIdx && mv.To == toIdx {
			return mv, true
		}
	}
	return draughts.Move{}, false
}

func pieceName(piece draughts.Square) string {
	if piece.King {
		return "king"
	}
	return "man"
}

func describeMove(piece draughts.Square, mv draughts.Move, promoted bool) string {
	desc := fmt.Sprintf("%s %s from %s to %s", piece.Color, pieceName(piece), draughts.SquareName(mv.From), draughts.SquareName(mv.To))
	if n := len(mv.Captures); n == 1 {
		desc += ", capturing 1 piece"
	} else if n > 1 {
		desc += fmt.Sprintf(", capturing %d pieces", n)
	}
	if promoted {
		desc += ", promoted to king"
	}
	return desc
}

func terminalText(status draughts.Status) string {
	switch status {
	case draughts.StatusDraw:
		return "game drawn"
	case draughts.StatusWhiteWon:
		return "white wins"
	default:
		return "black wins"
	}
}
