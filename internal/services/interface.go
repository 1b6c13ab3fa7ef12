package services

import (
	"context"

	"badgehub/internal/models"
)

// IssuanceService orchestrates the course-completion ingestion pipeline:
// badge resolution, person and award upsert, then best-effort certificate
// generation and notification. Errors before the award commit abort the
// request; failures after it are captured into the IssuanceResult.
type IssuanceService interface {
	ProcessCompletion(ctx context.Context, req *CompletionRequest) (*IssuanceResult, error)
}

// CertificateService renders and stores certificate artifacts.
type CertificateService interface {
	Generate(ctx context.Context, req *GenerateCertificateRequest) (*GenerateCertificateResult, error)
}

// NotificationService delivers best-effort issuance emails. Notify never
// returns an error; every failure mode collapses into the outcome.
type NotificationService interface {
	Notify(ctx context.Context, req *NotifyRequest) EmailOutcome
}

// CredentialService provides read access to badge definitions for the
// page-rendering layer.
type CredentialService interface {
	GetBySlug(ctx context.Context, slug string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
}

// AwardService provides read access to awards plus the certificate
// regeneration trigger.
type AwardService interface {
	GetByID(ctx context.Context, id string) (*models.Award, error)
	List(ctx context.Context, limit int) ([]*models.Award, error)
	RegenerateCertificate(ctx context.Context, id string) (*models.Award, error)
}
