package repositories

import (
	"badgehub/internal/database"

	"go.uber.org/zap"
)

// NewCollection wires all repositories against a shared database manager
func NewCollection(db *database.Manager, logger *zap.Logger) *Collection {
	return &Collection{
		Credentials: NewCredentialRepository(db, logger),
		People:      NewPersonRepository(db, logger),
		Awards:      NewAwardRepository(db, logger),
	}
}
