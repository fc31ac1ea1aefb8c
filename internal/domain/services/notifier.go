package services

import "context"

// Notifier sends email notifications. Deliveries are fire-and-forget from
// the caller's perspective; implementations log failures.
type Notifier interface {
	// SendOTP mails a one-time verification code
	SendOTP(ctx context.Context, email, code string) error

	// SendShareLink mails a share link on behalf of senderName
	SendShareLink(ctx context.Context, email, link, senderName string) error
}
