package handlers

import (
	"io"
	"net/http"

	"github.com/BerylCAtieno/casevia/internal/services"
	"github.com/BerylCAtieno/casevia/internal/transcriber"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

const maxWebhookBody = 10 << 20

type WebhookHandler struct {
	service services.WebhookService
	logger  *utils.Logger
}

func NewWebhookHandler(service services.WebhookService, logger *utils.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

func (h *WebhookHandler) Transcription(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("Failed to read webhook body"))
		return
	}

	secret := r.Header.Get(transcriber.WebhookSecretHeader)
	if err := h.service.HandleTranscriptionWebhook(r.Context(), secret, body); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "received"})
}
