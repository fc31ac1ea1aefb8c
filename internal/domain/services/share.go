package services

import (
	"context"
	"time"

	"recordvault/internal/domain/models"
)

// ShareService handles share-link business logic
type ShareService interface {
	// CreateShare creates a share token for a node and emails the link
	// to the recipient
	CreateShare(ctx context.Context, req *CreateShareRequest) (*models.Share, error)

	// ResolveShare redeems a share token, returning the shared node.
	// Expired or unknown tokens yield NotFound.
	ResolveShare(ctx context.Context, token string) (*models.Node, error)
}

// CreateShareRequest represents a share creation request
type CreateShareRequest struct {
	OwnerID        string        `json:"-"`
	NodeID         string        `json:"node_id"`
	RecipientEmail string        `json:"recipient_email"`
	SenderName     string        `json:"sender_name"`
	TTL            time.Duration `json:"-"`
	TTLHours       int           `json:"ttl_hours,omitempty"`
}
