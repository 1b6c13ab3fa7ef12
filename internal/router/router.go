package router

import (
	"net/http"
	"time"

	"badgehub/internal/handlers/api/v1/awards"
	"badgehub/internal/handlers/api/v1/credentials"
	"badgehub/internal/handlers/api/v1/webhooks"
	"badgehub/internal/middleware"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// New builds the HTTP handler tree
func New(serviceCollection *services.ServiceCollection, logger *zap.Logger) http.Handler {
	responseBuilder := response.NewBuilder(response.DefaultConfig(), logger)

	webhookController := webhooks.NewWebhookController(serviceCollection, logger, responseBuilder)
	awardController := awards.NewAwardController(serviceCollection, logger, responseBuilder)
	credentialController := credentials.NewCredentialController(serviceCollection, logger, responseBuilder)

	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogging(logger, nil))
	r.Use(middleware.Recovery(logger, responseBuilder))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// The ingestion webhook is CORS-open: course platforms post completion
	// signals from arbitrary origins.
	webhookCORS := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(webhookCORS.Handler)
		r.Post("/course-completion", webhookController.HandleCompletion)
		r.Options("/course-completion", webhookController.HandleOptions)
	})

	apiCORS := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiCORS.Handler)

		r.Route("/awards", func(r chi.Router) {
			r.Get("/", awardController.ListAwards)
			r.Get("/{id}", awardController.GetAward)
			r.Post("/{id}/certificate", awardController.RegenerateCertificate)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", credentialController.ListCredentials)
			r.Get("/{slug}", credentialController.GetCredential)
		})
	})

	r.Get("/health", healthHandler(serviceCollection, responseBuilder))

	return r
}

// healthHandler reports dependency health; a degraded collection still
// answers 200 so load balancers keep routing while operators investigate.
func healthHandler(serviceCollection *services.ServiceCollection, responseBuilder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := serviceCollection.Health(r.Context())
		responseBuilder.WriteSuccess(w, r, health)
	}
}
