package repositories

import (
	"context"

	"badgehub/internal/models"
)

// CredentialRepository provides read access to badge definitions plus the
// administrative write path. The ingestion pipeline only ever reads.
type CredentialRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
	Create(ctx context.Context, credential *models.Credential) error
	Update(ctx context.Context, credential *models.Credential) error
}

// PersonRepository persists badge recipients keyed by normalized email.
type PersonRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Person, error)
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	Create(ctx context.Context, person *models.Person) error
}

// AwardRepository persists person/credential associations. Create returns a
// unique-violation error when an award already exists for the pair; callers
// resolve that by re-reading.
type AwardRepository interface {
	GetByID(ctx context.Context, id string) (*models.Award, error)
	GetByPersonAndCredential(ctx context.Context, personID, credentialID int64) (*models.Award, error)
	List(ctx context.Context, limit int) ([]*models.Award, error)
	Create(ctx context.Context, award *models.Award) error
	SetCertificateURL(ctx context.Context, id string, certificateURL string) error
}

// Collection bundles all repositories for dependency injection
type Collection struct {
	Credentials CredentialRepository
	People      PersonRepository
	Awards      AwardRepository
}
