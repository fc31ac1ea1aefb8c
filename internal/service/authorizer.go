package service

import (
	"context"

	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/services"
)

// ownershipAuthorizer grants access when the caller's account owns the node.
// Richer policies (sharing, roles) can replace this without touching the
// tree logic.
type ownershipAuthorizer struct{}

// NewOwnershipAuthorizer creates an ownership-based resource authorizer
func NewOwnershipAuthorizer() services.ResourceAuthorizer {
	return &ownershipAuthorizer{}
}

// CanAccessNode checks ownership by strict equality. The error carries no
// detail about the node so a caller cannot probe other accounts' trees.
func (a *ownershipAuthorizer) CanAccessNode(_ context.Context, ownerID string, node *models.Node) error {
	if node.OwnerID != ownerID {
		return &domain.ForbiddenError{Message: "access denied"}
	}
	return nil
}
