package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/deefind/detector-server-go/internal/service"
)

type UsageHandler struct {
	accounts *service.AccountService
	usage    *service.UsageService
}

func NewUsageHandler(accounts *service.AccountService, usage *service.UsageService) *UsageHandler {
	return &UsageHandler{
		accounts: accounts,
		usage:    usage,
	}
}

// GET /v1/usage
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	// Every read re-runs the lazy month rollover check.
	if err := h.usage.Load(r.Context()); err != nil {
		log.Error().Err(err).Msg("failed to load usage record")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     h.usage.Count(),
		"remaining": h.usage.Remaining(),
		"limit":     h.usage.Limit(),
		"unlimited": h.accounts.IsPremium(),
	})
}
