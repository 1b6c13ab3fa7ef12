package services

import (
	"context"
	"fmt"

	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"go.uber.org/zap"
)

// awardService implements AwardService
type awardService struct {
	repos        *repositories.Collection
	certificates CertificateService
	logger       *zap.Logger
}

// NewAwardService creates a new award service
func NewAwardService(repos *repositories.Collection, certificates CertificateService, logger *zap.Logger) AwardService {
	return &awardService{repos: repos, certificates: certificates, logger: logger}
}

func (s *awardService) GetByID(ctx context.Context, id string) (*models.Award, error) {
	award, err := s.repos.Awards.GetByID(ctx, id)
	if err != nil {
		return nil, NewPersistenceError("failed to get award", err)
	}
	if award == nil {
		return nil, NewNotFoundError(fmt.Sprintf("award %q not found", id))
	}
	return award, nil
}

func (s *awardService) List(ctx context.Context, limit int) ([]*models.Award, error) {
	awards, err := s.repos.Awards.List(ctx, limit)
	if err != nil {
		return nil, NewPersistenceError("failed to list awards", err)
	}
	return awards, nil
}

// RegenerateCertificate re-renders the certificate for an existing award
// and overwrites the stored artifact at its stable path.
func (s *awardService) RegenerateCertificate(ctx context.Context, id string) (*models.Award, error) {
	award, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	generated, err := s.certificates.Generate(ctx, &GenerateCertificateRequest{
		RecipientName:    award.RecipientName,
		IssuedAt:         award.IssuedAt,
		VerificationCode: award.ID,
		BadgeTitle:       award.BadgeName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repos.Awards.SetCertificateURL(ctx, award.ID, generated.PublicURL); err != nil {
		return nil, NewPersistenceError("failed to record certificate URL", err)
	}
	award.CertificateURL = &generated.PublicURL

	s.logger.Info("Certificate regenerated",
		zap.String("award_id", award.ID),
		zap.String("storage_path", generated.StoragePath),
	)

	return award, nil
}
