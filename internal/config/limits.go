package config

import "time"

const (
	// MaxNodeNameLength is the maximum length for folder and file names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxNodeNameLength = 255

	// MaxMimeTypeLength bounds the declared content type of file nodes.
	MaxMimeTypeLength = 255

	// MaxUploadBytes caps the size of a single content upload (50MB).
	MaxUploadBytes = 50 << 20

	// DefaultShareTTL is how long a share link stays redeemable unless the
	// request says otherwise.
	DefaultShareTTL = 72 * time.Hour

	// DefaultPresignTTL is the lifetime of presigned download URLs.
	DefaultPresignTTL = 15 * time.Minute
)
