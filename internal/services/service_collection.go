package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/config"
	"badgehub/internal/database"
	"badgehub/internal/render"
	"badgehub/internal/repositories"
	"badgehub/internal/storage"

	"go.uber.org/zap"
)

// ServiceCollection holds all services with dependency injection
type ServiceCollection struct {
	// Core Services
	IssuanceService   IssuanceService   `json:"-"`
	CredentialService CredentialService `json:"-"`
	AwardService      AwardService      `json:"-"`

	// Infrastructure Services
	CertificateService  CertificateService  `json:"-"`
	NotificationService NotificationService `json:"-"`

	// Repository Collection
	Repositories *repositories.Collection `json:"-"`

	// Infrastructure Components
	Cache     cache.Cache         `json:"-"`
	Store     storage.ObjectStore `json:"-"`
	Renderer  render.Renderer     `json:"-"`
	Logger    *zap.Logger         `json:"-"`
	Config    *config.Config      `json:"-"`
	DBManager *database.Manager   `json:"-"`

	mu          sync.RWMutex `json:"-"`
	initialized bool         `json:"-"`
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Issues       []string                 `json:"issues,omitempty"`
}

// ServiceStatus represents the status of an individual dependency
type ServiceStatus struct {
	Name         string        `json:"name"`
	Status       string        `json:"status"` // healthy, unhealthy
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

// NewServiceCollection creates a new service collection
func NewServiceCollection(
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	collection := &ServiceCollection{
		DBManager: dbManager,
		Config:    cfg,
		Logger:    logger,
	}

	// Initialize in dependency order
	if err := collection.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	if err := collection.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := collection.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	collection.initialized = true
	logger.Info("Service collection initialized successfully")

	return collection, nil
}

// ===============================
// INITIALIZATION METHODS
// ===============================

// initializeInfrastructure sets up infrastructure components
func (sc *ServiceCollection) initializeInfrastructure() error {
	sc.Logger.Info("Initializing infrastructure components")

	c, err := cache.NewCache(&sc.Config.Cache, sc.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	sc.Cache = c

	store, err := storage.NewMinIOStore(&sc.Config.Storage, sc.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	sc.Store = store

	sc.Renderer = render.NewChromeRenderer(&sc.Config.Renderer, sc.Logger)

	sc.Logger.Info("Infrastructure components initialized")
	return nil
}

// initializeRepositories sets up the repository layer
func (sc *ServiceCollection) initializeRepositories() error {
	sc.Logger.Info("Initializing repositories")

	sc.Repositories = repositories.NewCollection(sc.DBManager, sc.Logger)

	sc.Logger.Info("Repositories initialized")
	return nil
}

// initializeServices wires the business services
func (sc *ServiceCollection) initializeServices() error {
	sc.Logger.Info("Initializing services")

	sc.CertificateService = NewCertificateService(
		sc.Store,
		sc.Renderer,
		&sc.Config.Storage,
		&sc.Config.Renderer,
		sc.Logger,
	)

	sc.NotificationService = NewNotificationService(&sc.Config.Email, sc.Logger)

	resolver := NewBadgeResolver(sc.Config.Badges.DefaultSlug, sc.Logger)

	sc.IssuanceService = NewIssuanceService(
		sc.Repositories,
		resolver,
		sc.CertificateService,
		sc.NotificationService,
		sc.Config.Server.PublicBaseURL,
		sc.Logger,
	)

	sc.CredentialService = NewCredentialService(sc.Repositories, sc.Cache, sc.Logger)
	sc.AwardService = NewAwardService(sc.Repositories, sc.CertificateService, sc.Logger)

	sc.Logger.Info("Services initialized")
	return nil
}

// ===============================
// LIFECYCLE MANAGEMENT
// ===============================

// Health reports the status of the collection's external dependencies
func (sc *ServiceCollection) Health(ctx context.Context) *ServiceHealth {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	health := &ServiceHealth{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]ServiceStatus),
	}

	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"database", sc.DBManager.Health},
		{"cache", sc.Cache.Health},
		{"storage", sc.Store.Ping},
	}

	for _, c := range checks {
		start := time.Now()
		err := c.check(ctx)
		status := ServiceStatus{
			Name:         c.name,
			Status:       "healthy",
			ResponseTime: time.Since(start),
		}
		if err != nil {
			status.Status = "unhealthy"
			status.Error = err.Error()
			health.Status = "degraded"
			health.Issues = append(health.Issues, fmt.Sprintf("%s: %v", c.name, err))
		}
		health.Dependencies[c.name] = status
	}

	return health
}

// Shutdown releases infrastructure resources
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if !sc.initialized {
		return nil
	}

	sc.Logger.Info("Shutting down service collection")

	if sc.Renderer != nil {
		sc.Renderer.Close()
	}
	if sc.Cache != nil {
		if err := sc.Cache.Close(); err != nil {
			sc.Logger.Warn("Failed to close cache", zap.Error(err))
		}
	}

	sc.initialized = false
	sc.Logger.Info("Service collection shut down")
	return nil
}
