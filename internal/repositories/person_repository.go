package repositories

import (
	"context"
	"fmt"

	"badgehub/internal/database"
	"badgehub/internal/models"

	"go.uber.org/zap"
)

// personRepository implements PersonRepository over Postgres
type personRepository struct {
	*BaseRepository
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *database.Manager, logger *zap.Logger) PersonRepository {
	return &personRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// GetByEmail retrieves a person by normalized email. Returns nil, nil when
// no person matches. Callers must normalize the email before lookup; the
// stored value is the sole identity key.
func (r *personRepository) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	query := `
		SELECT id, name, email, created_at
		FROM people
		WHERE email = $1`

	var person models.Person
	err := r.QueryRowContext(ctx, query, email).Scan(
		&person.ID, &person.Name, &person.Email, &person.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get person by email: %w", err)
	}

	return &person, nil
}

// GetByID retrieves a person by identifier
func (r *personRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	query := `
		SELECT id, name, email, created_at
		FROM people
		WHERE id = $1`

	var person models.Person
	err := r.QueryRowContext(ctx, query, id).Scan(
		&person.ID, &person.Name, &person.Email, &person.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get person by ID: %w", err)
	}

	return &person, nil
}

// Create inserts a new person. The people.email unique constraint is the
// concurrency guard; a violation surfaces unchanged so the caller can
// re-read the winning row.
func (r *personRepository) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO people (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query, person.Name, person.Email).Scan(
		&person.ID, &person.CreatedAt,
	)
	if err != nil {
		if r.IsUniqueViolation(err) {
			return err
		}
		r.GetLogger().Error("Failed to create person",
			zap.Error(err),
			zap.String("email", person.Email),
		)
		return fmt.Errorf("failed to create person: %w", err)
	}

	r.GetLogger().Info("Person created",
		zap.Int64("person_id", person.ID),
		zap.String("email", person.Email),
	)

	return nil
}
