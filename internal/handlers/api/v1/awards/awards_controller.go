package awards

import (
	"net/http"
	"strconv"

	"badgehub/internal/response"
	"badgehub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// AwardController handles award read and maintenance endpoints
type AwardController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewAwardController creates a new award controller
func NewAwardController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *AwardController {
	return &AwardController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// ListAwards handles GET /api/v1/awards
func (c *AwardController) ListAwards(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.responseBuilder.WriteError(w, r, services.NewValidationError("limit must be a positive integer", err))
			return
		}
		limit = parsed
	}

	awards, err := c.serviceCollection.AwardService.List(r.Context(), limit)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, awards)
}

// GetAward handles GET /api/v1/awards/{id}
func (c *AwardController) GetAward(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("award id is required", nil))
		return
	}

	award, err := c.serviceCollection.AwardService.GetByID(r.Context(), id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, award)
}

// RegenerateCertificate handles POST /api/v1/awards/{id}/certificate
func (c *AwardController) RegenerateCertificate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("award id is required", nil))
		return
	}

	award, err := c.serviceCollection.AwardService.RegenerateCertificate(r.Context(), id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.logger.Info("Certificate regenerated via API",
		zap.String("award_id", award.ID),
	)

	c.responseBuilder.WriteSuccess(w, r, award)
}
