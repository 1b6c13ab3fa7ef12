package webhooks

import (
	"io"
	"net/http"
	"time"

	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// maxPayloadBytes caps webhook bodies; completion signals are small.
const maxPayloadBytes = 1 << 20

// WebhookController handles course-completion ingestion endpoints
type WebhookController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *WebhookController {
	return &WebhookController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// completionResponse is the contract body for a successful ingestion. The
// shape is fixed; upstream course platforms parse it field by field, so it
// bypasses the standard response envelope.
type completionResponse struct {
	Status         string                `json:"status"`
	BadgeSlug      string                `json:"badgeSlug"`
	RecipientEmail string                `json:"recipientEmail"`
	RecipientName  string                `json:"recipientName"`
	Award          awardBody             `json:"award"`
	Email          services.EmailOutcome `json:"email"`
}

type awardBody struct {
	ID                      string    `json:"id"`
	VerificationCode        string    `json:"verificationCode"`
	IssuedAt                time.Time `json:"issuedAt"`
	PersonalizedDescription *string   `json:"personalizedDescription,omitempty"`
	URL                     string    `json:"url"`
	CertificateURL          string    `json:"certificateUrl,omitempty"`
}

// HandleCompletion handles POST /webhooks/course-completion
func (c *WebhookController) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		c.logger.Warn("Failed to read webhook body", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("failed to read request body", err))
		return
	}

	req, verr := services.ClassifyPayload(body)
	if verr != nil {
		c.responseBuilder.WriteError(w, r, verr)
		return
	}

	result, err := c.serviceCollection.IssuanceService.ProcessCompletion(ctx, req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.logger.Info("Completion webhook accepted",
		zap.String("award_id", result.Award.ID),
		zap.String("badge_slug", result.BadgeSlug),
		zap.Bool("reused", result.Reused),
	)

	c.responseBuilder.WriteRaw(w, r, buildCompletionResponse(result), http.StatusOK)
}

// HandleOptions handles OPTIONS /webhooks/course-completion
func (c *WebhookController) HandleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func buildCompletionResponse(result *services.IssuanceResult) *completionResponse {
	resp := &completionResponse{
		Status:         "ok",
		BadgeSlug:      result.BadgeSlug,
		RecipientEmail: result.RecipientEmail,
		RecipientName:  result.RecipientName,
		Award: awardBody{
			ID:                      result.Award.ID,
			VerificationCode:        result.Award.ID,
			IssuedAt:                result.Award.IssuedAt,
			PersonalizedDescription: result.Award.PersonalizedDescription,
			URL:                     result.AwardURL,
			CertificateURL:          result.Certificate.URL,
		},
		Email: result.Email,
	}
	return resp
}
