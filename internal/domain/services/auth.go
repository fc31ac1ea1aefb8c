package services

import (
	"context"

	"recordvault/internal/domain/models"
)

// ResourceAuthorizer checks if an account can access resources.
// Current implementation: ownership-based (account owns node).
// Future: roles, permissions, sharing, etc.
//
// Design principle: services call the authorizer before operating on
// resources. This separates authorization (who can access) from
// identification (which resource).
type ResourceAuthorizer interface {
	// CanAccessNode checks if the account can access the given node.
	// The failure must not reveal whether the node exists under another
	// account.
	CanAccessNode(ctx context.Context, ownerID string, node *models.Node) error
}
