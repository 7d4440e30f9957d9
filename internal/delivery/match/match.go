package match

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"draughts_arena/internal/adapters"
	"draughts_arena/internal/bootstrap"
	authDelivery "draughts_arena/internal/delivery/auth"
	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/engine"
	errs "draughts_arena/internal/errors"
	"draughts_arena/internal/httpresponse"
	repo "draughts_arena/internal/repository"
	aiuc "draughts_arena/internal/usecase/ai"
	"draughts_arena/internal/usecase/economy"
	matchuc "draughts_arena/internal/usecase/match"
	"draughts_arena/internal/utils"
)

type MatchHandler struct {
	cfg         bootstrap.Config
	log         *zap.SugaredLogger
	matchUC     *matchuc.MatchUseCase
	ledger      *economy.Ledger
	authHandler *authDelivery.AuthHandler
}

type RechargeRequest struct {
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

func NewMatchHandler(cfg bootstrap.Config, log *zap.SugaredLogger, mongoAdapter *adapters.AdapterMongo, authHandler *authDelivery.AuthHandler) *MatchHandler {
	ledger := economy.NewLedger(repo.NewPlayerRepository(log, mongoAdapter.Database), log)
	bot := aiuc.NewGenerator(log, time.Duration(cfg.AiTimeoutMs)*time.Millisecond)

	return &MatchHandler{
		cfg: cfg,
		log: log,
		matchUC: matchuc.NewMatchUseCase(
			cfg,
			log,
			repo.NewMatchRepository(log, mongoAdapter.Database),
			ledger,
			engine.Factory{},
			bot,
		),
		ledger:      ledger,
		authHandler: authHandler,
	}
}

// UseCase exposes the match core for collaborators (the export handler reads
// its history projection).
func (h *MatchHandler) UseCase() *matchuc.MatchUseCase {
	return h.matchUC
}

func (h *MatchHandler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}

	var req matchdomain.CreateMatchRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("CreateMatch: JSON decode error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	created, err := h.matchUC.CreateMatch(r.Context(), playerID, req)
	if err != nil {
		h.writeError(w, "CreateMatch", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, created)
}

func (h *MatchHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}
	matchID := chi.URLParam(r, "id")

	var req matchdomain.MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("Move: JSON decode error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	resp, err := h.matchUC.ExecuteMove(r.Context(), matchID, playerID, req)
	if err != nil {
		h.writeError(w, "Move", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *MatchHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}
	matchID := chi.URLParam(r, "id")

	resp, err := h.matchUC.AbandonMatch(r.Context(), matchID, playerID)
	if err != nil {
		h.writeError(w, "Abandon", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *MatchHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}
	matchID := chi.URLParam(r, "id")

	text, err := h.matchUC.EvaluateMatch(r.Context(), matchID, playerID)
	if err != nil {
		h.writeError(w, "Evaluate", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]string{"status": text})
}

func (h *MatchHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}
	matchID := chi.URLParam(r, "id")

	history, err := h.matchUC.MoveHistory(r.Context(), matchID)
	if err != nil {
		h.writeError(w, "History", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, history)
}

func (h *MatchHandler) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "since must be a YYYY-MM-DD date"})
			return
		}
		since = &parsed
	}

	summaries, err := h.matchUC.ListMatches(r.Context(), playerID, since)
	if err != nil {
		h.writeError(w, "ListMatches", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, summaries)
}

func (h *MatchHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}

	order := r.URL.Query().Get("order")
	if order != "asc" {
		order = "desc"
	}

	entries, err := h.matchUC.Leaderboard(r.Context(), order)
	if err != nil {
		h.writeError(w, "Leaderboard", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, entries)
}

func (h *MatchHandler) HandleRecharge(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}

	var req RechargeRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("Recharge: JSON decode error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}
	if req.Email == "" || req.Amount < 0 {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "email and a non-negative amount are required"})
		return
	}

	if err := h.ledger.Recharge(r.Context(), playerID, req.Email, req.Amount); err != nil {
		h.writeError(w, "Recharge", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (h *MatchHandler) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	playerID := h.authHandler.GetUserID(w, r)
	if playerID == "" {
		return
	}
	matchID := chi.URLParam(r, "id")

	if err := h.matchUC.DeleteMatch(r.Context(), matchID, playerID); err != nil {
		h.writeError(w, "DeleteMatch", playerID, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (h *MatchHandler) writeError(w http.ResponseWriter, op, playerID string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Errorw(op+" failed", "player_id", playerID, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	h.log.Warnw(op+" rejected", "player_id", playerID, "error", err)
	httpresponse.WriteResponseWithStatus(w, status,
		httpresponse.ErrorResponse{ErrorDescription: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrInsufficientTokens):
		return http.StatusPaymentRequired
	case errors.Is(err, errs.ErrNotParticipant), errors.Is(err, errs.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrMatchNotInProgress), errors.Is(err, errs.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, errs.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrBadMatchSetup),
		errors.Is(err, errs.ErrOpponentNotFound),
		errors.Is(err, errs.ErrIllegalMove),
		errors.Is(err, errs.ErrRepeatedMove):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
