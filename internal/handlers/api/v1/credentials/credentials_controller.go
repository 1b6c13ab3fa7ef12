package credentials

import (
	"net/http"

	"badgehub/internal/response"
	"badgehub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CredentialController handles badge catalog read endpoints
type CredentialController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewCredentialController creates a new credential controller
func NewCredentialController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *CredentialController {
	return &CredentialController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// ListCredentials handles GET /api/v1/credentials
func (c *CredentialController) ListCredentials(w http.ResponseWriter, r *http.Request) {
	credentials, err := c.serviceCollection.CredentialService.List(r.Context())
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, credentials)
}

// GetCredential handles GET /api/v1/credentials/{slug}
func (c *CredentialController) GetCredential(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("badge slug is required", nil))
		return
	}

	credential, err := c.serviceCollection.CredentialService.GetBySlug(r.Context(), slug)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.responseBuilder.WriteSuccess(w, r, credential)
}
