package repositories

import (
	"context"

	"recordvault/internal/domain/models"
)

// NodeRepository defines data access operations for nodes.
// Implementations must enforce (owner_id, parent_id, name) uniqueness at the
// storage layer; the service-level existence check is an early exit, not the
// real guard against concurrent writers.
type NodeRepository interface {
	// Create persists a new node and fills in its generated ID
	Create(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node by ID regardless of owner
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// Update persists name/updated_at changes for an existing node
	Update(ctx context.Context, node *models.Node) error

	// Delete removes a node record by ID
	Delete(ctx context.Context, id string) error

	// ListChildren lists live nodes under (ownerID, parentID); nil parentID
	// means root level
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error)

	// ExistsSibling reports whether a live node named name exists under
	// (ownerID, parentID)
	ExistsSibling(ctx context.Context, ownerID string, parentID *string, name string) (bool, error)
}
