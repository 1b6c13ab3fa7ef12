package repositories

import (
	"context"
	"fmt"

	"badgehub/internal/database"
	"badgehub/internal/models"

	"go.uber.org/zap"
)

// awardRepository implements AwardRepository over Postgres
type awardRepository struct {
	*BaseRepository
}

// NewAwardRepository creates a new award repository
func NewAwardRepository(db *database.Manager, logger *zap.Logger) AwardRepository {
	return &awardRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const awardSelect = `
	SELECT
		a.id, a.person_id, a.credential_id, a.issued_at,
		a.personalized_description, a.certificate_url, a.created_at,
		p.name, p.email, c.slug, c.name
	FROM awards a
	JOIN people p ON p.id = a.person_id
	JOIN credentials c ON c.id = a.credential_id`

// GetByID retrieves an award by verification code. Returns nil, nil when
// no award matches.
func (r *awardRepository) GetByID(ctx context.Context, id string) (*models.Award, error) {
	query := awardSelect + ` WHERE a.id = $1`

	award, err := r.scanAward(r.QueryRowContext(ctx, query, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get award by ID: %w", err)
	}

	return award, nil
}

// GetByPersonAndCredential retrieves the single award for a (person,
// credential) pair, or nil, nil when none exists.
func (r *awardRepository) GetByPersonAndCredential(ctx context.Context, personID, credentialID int64) (*models.Award, error) {
	query := awardSelect + ` WHERE a.person_id = $1 AND a.credential_id = $2`

	award, err := r.scanAward(r.QueryRowContext(ctx, query, personID, credentialID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get award by person and credential: %w", err)
	}

	return award, nil
}

// List returns awards ordered newest-first. A non-positive limit returns
// every award.
func (r *awardRepository) List(ctx context.Context, limit int) ([]*models.Award, error) {
	query := awardSelect + ` ORDER BY a.issued_at DESC, a.created_at DESC`

	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list awards: %w", err)
	}
	defer rows.Close()

	var awards []*models.Award
	for rows.Next() {
		award, err := r.scanAward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		awards = append(awards, award)
	}

	return awards, rows.Err()
}

// Create inserts a new award. The (person_id, credential_id) unique
// constraint is the concurrency guard; a violation surfaces unchanged so
// the caller can re-read the winning row.
func (r *awardRepository) Create(ctx context.Context, award *models.Award) error {
	query := `
		INSERT INTO awards (id, person_id, credential_id, issued_at, personalized_description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.QueryRowContext(
		ctx, query,
		award.ID, award.PersonID, award.CredentialID,
		award.IssuedAt, award.PersonalizedDescription,
	).Scan(&award.CreatedAt)
	if err != nil {
		if r.IsUniqueViolation(err) {
			return err
		}
		r.GetLogger().Error("Failed to create award",
			zap.Error(err),
			zap.Int64("person_id", award.PersonID),
			zap.Int64("credential_id", award.CredentialID),
		)
		return fmt.Errorf("failed to create award: %w", err)
	}

	r.GetLogger().Info("Award created",
		zap.String("award_id", award.ID),
		zap.Int64("person_id", award.PersonID),
		zap.Int64("credential_id", award.CredentialID),
	)

	return nil
}

// SetCertificateURL records the stored certificate artifact for an award.
// Regeneration overwrites the previous value.
func (r *awardRepository) SetCertificateURL(ctx context.Context, id string, certificateURL string) error {
	query := `UPDATE awards SET certificate_url = $2 WHERE id = $1`

	result, err := r.ExecContext(ctx, query, id, certificateURL)
	if err != nil {
		return fmt.Errorf("failed to set certificate URL: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("award %s does not exist", id)
	}

	return nil
}

func (r *awardRepository) scanAward(row rowScanner) (*models.Award, error) {
	var award models.Award
	err := row.Scan(
		&award.ID, &award.PersonID, &award.CredentialID, &award.IssuedAt,
		&award.PersonalizedDescription, &award.CertificateURL, &award.CreatedAt,
		&award.RecipientName, &award.RecipientEmail, &award.BadgeSlug, &award.BadgeName,
	)
	if err != nil {
		return nil, err
	}
	return &award, nil
}
