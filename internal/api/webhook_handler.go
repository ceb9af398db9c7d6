package api

import (
	"log/slog"
	"net/http"

	"github.com/inkpress/inkpress-api/internal/api/shared"
)

// TriggerPoller starts a poll cycle on demand. Implemented by the CMS
// poller.
type TriggerPoller interface {
	TriggerNow()
}

// WebhookHandler serves inbound webhook endpoints that nudge the poller
// instead of waiting for the next scheduled cycle.
type WebhookHandler struct {
	logger *slog.Logger
	poller TriggerPoller
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(log *slog.Logger, poller TriggerPoller) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger: log.With("component", "webhook_handler"),
		poller: poller,
	}
}

// NotionPoll handles POST /api/webhooks/notion/poll. The cycle runs in the
// background; the response only acknowledges that it started.
func (h *WebhookHandler) NotionPoll(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "poll requested via webhook")

	go h.poller.TriggerNow()

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{"status": "polling"})
}
