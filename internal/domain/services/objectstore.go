package services

import (
	"context"
	"io"
	"time"
)

// ObjectStore persists and retrieves file byte content by storage key.
// The node tree only reserves and releases keys; it never interprets the
// bytes behind them.
type ObjectStore interface {
	// Put uploads the object under key, replacing any existing content
	Put(ctx context.Context, key string, body io.Reader, contentType string, contentLength int64) error

	// Delete removes the object under key. Used best-effort: callers log
	// failures instead of propagating them.
	Delete(ctx context.Context, key string) error

	// PresignDownload returns a time-limited byte-access URL for key
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
}
