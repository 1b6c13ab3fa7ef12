package services

import (
	"context"
	"fmt"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"go.uber.org/zap"
)

const credentialCacheTTL = 10 * time.Minute

// credentialService implements CredentialService
type credentialService struct {
	repos  *repositories.Collection
	cache  cache.Cache
	logger *zap.Logger
}

// NewCredentialService creates a new credential service
func NewCredentialService(repos *repositories.Collection, c cache.Cache, logger *zap.Logger) CredentialService {
	return &credentialService{repos: repos, cache: c, logger: logger}
}

func (s *credentialService) GetBySlug(ctx context.Context, slug string) (*models.Credential, error) {
	key := fmt.Sprintf("credential:slug:%s", slug)

	var cached models.Credential
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	credential, err := s.repos.Credentials.GetBySlug(ctx, slug)
	if err != nil {
		return nil, NewPersistenceError("failed to get badge", err)
	}
	if credential == nil {
		return nil, NewNotFoundError(fmt.Sprintf("badge %q not found", slug))
	}

	if err := s.cache.Set(ctx, key, credential, credentialCacheTTL); err != nil {
		s.logger.Warn("Failed to cache credential", zap.Error(err), zap.String("slug", slug))
	}

	return credential, nil
}

func (s *credentialService) List(ctx context.Context) ([]*models.Credential, error) {
	credentials, err := s.repos.Credentials.List(ctx)
	if err != nil {
		return nil, NewPersistenceError("failed to list badges", err)
	}
	return credentials, nil
}
