package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-management-api/internal/cache"
	"github.com/yukikurage/project-management-api/internal/clerk"
	"github.com/yukikurage/project-management-api/internal/constants"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/workflow"
)

const maxWebhookBody = 1 << 20

// WebhookHandler turns signed Clerk deliveries into workflow events.
type WebhookHandler struct {
	verifier *clerk.Verifier
	deduper  cache.Deduper
	events   services.EventSender
}

func NewWebhookHandler(verifier *clerk.Verifier, deduper cache.Deduper, events services.EventSender) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		deduper:  deduper,
		events:   events,
	}
}

// Clerk verifies the delivery, drops repeats of an already accepted svix-id,
// and sends clerk/<type> with the delivery id as event id.
func (h *WebhookHandler) Clerk(c *gin.Context) {
	if h.verifier == nil {
		apierrors.ServiceUnavailable(c, "Webhooks are not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		apierrors.BadRequest(c, "Failed to read request body")
		return
	}

	deliveryID, err := h.verifier.Verify(c.Request.Header, body)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected webhook delivery")
		apierrors.Unauthorized(c, "Invalid webhook signature")
		return
	}

	var envelope clerk.Event
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Type == "" {
		apierrors.BadRequest(c, "Invalid webhook payload")
		return
	}

	ctx := c.Request.Context()
	logger := log.With().Str("delivery_id", deliveryID).Str("type", envelope.Type).Logger()

	first, err := h.deduper.MarkSeen(ctx, deliveryID, constants.WebhookDedupeTTL)
	if err != nil {
		// The engine still rejects a second run for the same event id.
		logger.Warn().Err(err).Msg("Webhook dedupe unavailable")
		first = true
	}
	if !first {
		logger.Debug().Msg("Duplicate webhook delivery ignored")
		c.JSON(http.StatusOK, gin.H{"message": "Webhook already processed"})
		return
	}

	ev := workflow.Event{
		ID:   deliveryID,
		Name: constants.ClerkEventPrefix + envelope.Type,
		Data: envelope.Data,
	}
	if err := h.events.Send(ctx, ev); err != nil {
		if ferr := h.deduper.Forget(ctx, deliveryID); ferr != nil {
			logger.Warn().Err(ferr).Msg("Failed to release webhook dedupe key")
		}
		internalError(c, fmt.Errorf("failed to enqueue webhook: %w", err))
		return
	}

	logger.Info().Msg("Webhook accepted")
	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
}
