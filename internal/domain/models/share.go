package models

import "time"

// Share grants time-limited, token-based read access to a node. The token
// is mailed to the recipient; no registration is required to redeem it.
type Share struct {
	ID             string    `json:"id" db:"id"`
	Token          string    `json:"token" db:"token"`
	NodeID         string    `json:"node_id" db:"node_id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	RecipientEmail string    `json:"recipient_email" db:"recipient_email"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the share can no longer be redeemed.
func (s *Share) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
