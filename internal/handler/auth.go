package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/deefind/detector-server-go/internal/audit"
	apperrors "github.com/deefind/detector-server-go/internal/errors"
	"github.com/deefind/detector-server-go/internal/httputil"
	"github.com/deefind/detector-server-go/internal/middleware"
	"github.com/deefind/detector-server-go/internal/model"
	"github.com/deefind/detector-server-go/internal/service"
)

type AuthHandler struct {
	accounts     *service.AccountService
	usage        *service.UsageService
	loginLimiter *middleware.LoginRateLimiter
}

func NewAuthHandler(
	accounts *service.AccountService,
	usage *service.UsageService,
	loginLimiter *middleware.LoginRateLimiter,
) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		usage:        usage,
		loginLimiter: loginLimiter,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.With(h.loginLimiter.Handler).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	return r
}

// POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params model.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, apperrors.Validation("Invalid request body"))
		return
	}

	account, err := h.accounts.Register(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventAccountCreate,
		AccountID: account.ID,
		Email:     account.Email,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"account": account,
		"session": h.accounts.Current(),
	})
}

// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var params model.LoginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httputil.WriteError(w, apperrors.Validation("Invalid request body"))
		return
	}

	account, err := h.accounts.Login(r.Context(), params)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:  audit.EventLoginFailure,
			Email: params.Email,
		})
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginSuccess,
		AccountID: account.ID,
		Email:     account.Email,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"session": h.accounts.Current(),
	})
}

// POST /v1/auth/logout
//
// Clearing the session also resets the usage counter, so the signed-out view
// starts from a clean count.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.accounts.Logout(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear session")
		httputil.WriteError(w, err)
		return
	}
	if err := h.usage.Reset(ctx); err != nil {
		log.Error().Err(err).Msg("failed to reset usage counter")
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})

	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := h.accounts.Current()
	if session == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Not signed in"))
		return
	}

	writeJSON(w, http.StatusOK, session)
}
