package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"badgehub/internal/database"
	"badgehub/internal/models"

	"go.uber.org/zap"
)

// credentialRepository implements CredentialRepository over Postgres
type credentialRepository struct {
	*BaseRepository
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *database.Manager, logger *zap.Logger) CredentialRepository {
	return &credentialRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// GetBySlug retrieves a credential by its unique slug. Returns nil, nil
// when no credential matches.
func (r *credentialRepository) GetBySlug(ctx context.Context, slug string) (*models.Credential, error) {
	query := `
		SELECT id, slug, name, description, template_id, ctas, created_at, updated_at
		FROM credentials
		WHERE slug = $1`

	credential, err := r.scanCredential(r.QueryRowContext(ctx, query, slug))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential by slug: %w", err)
	}

	return credential, nil
}

// List returns all credentials ordered by name
func (r *credentialRepository) List(ctx context.Context) ([]*models.Credential, error) {
	query := `
		SELECT id, slug, name, description, template_id, ctas, created_at, updated_at
		FROM credentials
		ORDER BY name ASC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*models.Credential
	for rows.Next() {
		credential, err := r.scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		credentials = append(credentials, credential)
	}

	return credentials, rows.Err()
}

// Create inserts a new credential definition
func (r *credentialRepository) Create(ctx context.Context, credential *models.Credential) error {
	ctas, err := json.Marshal(credential.CTAs)
	if err != nil {
		return fmt.Errorf("failed to encode credential CTAs: %w", err)
	}

	query := `
		INSERT INTO credentials (slug, name, description, template_id, ctas)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err = r.QueryRowContext(
		ctx, query,
		credential.Slug, credential.Name, credential.Description,
		credential.TemplateID, ctas,
	).Scan(&credential.ID, &credential.CreatedAt, &credential.UpdatedAt)

	if err != nil {
		r.GetLogger().Error("Failed to create credential",
			zap.Error(err),
			zap.String("slug", credential.Slug),
		)
		return fmt.Errorf("failed to create credential: %w", err)
	}

	r.GetLogger().Info("Credential created",
		zap.Int64("credential_id", credential.ID),
		zap.String("slug", credential.Slug),
	)

	return nil
}

// Update rewrites a credential's mutable fields. The slug is immutable.
func (r *credentialRepository) Update(ctx context.Context, credential *models.Credential) error {
	ctas, err := json.Marshal(credential.CTAs)
	if err != nil {
		return fmt.Errorf("failed to encode credential CTAs: %w", err)
	}

	query := `
		UPDATE credentials
		SET name = $2, description = $3, template_id = $4, ctas = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = r.QueryRowContext(
		ctx, query,
		credential.ID, credential.Name, credential.Description,
		credential.TemplateID, ctas,
	).Scan(&credential.UpdatedAt)

	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("credential %d does not exist", credential.ID)
		}
		return fmt.Errorf("failed to update credential: %w", err)
	}

	return nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *credentialRepository) scanCredential(row rowScanner) (*models.Credential, error) {
	var credential models.Credential
	var ctas []byte

	err := row.Scan(
		&credential.ID, &credential.Slug, &credential.Name,
		&credential.Description, &credential.TemplateID, &ctas,
		&credential.CreatedAt, &credential.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(ctas) > 0 {
		if err := json.Unmarshal(ctas, &credential.CTAs); err != nil {
			return nil, fmt.Errorf("failed to decode credential CTAs: %w", err)
		}
	}

	return &credential, nil
}
