package repositories

import (
	"context"

	"recordvault/internal/domain/models"
)

// ShareRepository defines data access operations for share links
type ShareRepository interface {
	// Create persists a new share and fills in its generated ID
	Create(ctx context.Context, share *models.Share) error

	// GetByToken retrieves a share by its redemption token
	GetByToken(ctx context.Context, token string) (*models.Share, error)

	// DeleteByNode removes all shares pointing at a node (cascade on delete)
	DeleteByNode(ctx context.Context, nodeID string) error
}
