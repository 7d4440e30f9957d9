package auth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"draughts_arena/internal/adapters"
	"draughts_arena/internal/bootstrap"
	errs "draughts_arena/internal/errors"
	"draughts_arena/internal/httpresponse"
	repo "draughts_arena/internal/repository"
	authUC "draughts_arena/internal/usecase/auth"
	"draughts_arena/internal/utils"
)

type AuthHandler struct {
	usecaseHandler *authUC.AuthUsecaseHandler
	log            *zap.SugaredLogger
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewAuthHandler(cfg bootstrap.Config, log *zap.SugaredLogger, mongoAdapter *adapters.AdapterMongo, redisAdapter *adapters.AdapterRedis) *AuthHandler {
	return &AuthHandler{
		usecaseHandler: authUC.NewAuthUsecaseHandler(
			repo.NewPlayerRepository(log, mongoAdapter.Database),
			repo.NewSessionRedisStorage(redisAdapter.GetClient(), log),
			cfg.StartingBalance,
		),
		log: log,
	}
}

func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerData RegisterRequest
	if err := utils.DecodeJSONRequest(r, &registerData); err != nil {
		a.log.Error("Register: malformed JSON: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}
	if registerData.Username == "" || registerData.Email == "" || registerData.Password == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "username, email and password are required"})
		return
	}

	sessionID, err := a.usecaseHandler.RegisterUser(r.Context(), registerData.Username, registerData.Email, registerData.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			a.log.Errorf("Register: user already exists: %s", registerData.Username)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "user with this username already exists"})
			return
		}
		a.log.Error("Register: internal error: ", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}

	setSessionCookie(w, sessionID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginData LoginRequest
	if err := utils.DecodeJSONRequest(r, &loginData); err != nil {
		a.log.Error("Login: malformed JSON: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	sessionID, err := a.usecaseHandler.LoginUser(r.Context(), loginData.Username, loginData.Password)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUserNotFound):
			a.log.Errorf("Login: user not found: %s", loginData.Username)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "user not found"})
		case errors.Is(err, errs.ErrWrongPassword):
			a.log.Errorf("Login: wrong password for user: %s", loginData.Username)
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "wrong password"})
		default:
			a.log.Error("Login: internal error: ", err)
			httpresponse.WriteInternalErrorResponse(w)
		}
		return
	}

	setSessionCookie(w, sessionID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		a.log.Warn("Logout: no cookie provided")
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: http.ErrNoCookie.Error()})
		return
	}

	if err := a.usecaseHandler.LogoutUser(r.Context(), sessionCookie.Value); err != nil {
		a.log.Errorf("Logout: failed to logout sessionID=%s: %v", sessionCookie.Value, err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

// GetUserID resolves the acting player from the session cookie. On failure it
// writes the error response itself and returns "".
func (a *AuthHandler) GetUserID(w http.ResponseWriter, r *http.Request) string {
	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		a.log.Warn("GetUserID: no sessionID cookie")
		httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
			httpresponse.ErrorResponse{ErrorDescription: "sessionID cookie not found"})
		return ""
	}

	playerID, err := a.usecaseHandler.GetPlayerIDFromSession(r.Context(), sessionCookie.Value)
	if err != nil {
		a.log.Warn("GetUserID: session not found or expired")
		httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
			httpresponse.ErrorResponse{ErrorDescription: "session not found or expired"})
		return ""
	}

	return playerID
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "sessionID",
		Value:    sessionID,
		Expires:  time.Now().Add(10 * time.Hour),
		Secure:   true,
		HttpOnly: true,
	})
}
