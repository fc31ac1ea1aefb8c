package services

import (
	"context"
	"io"

	"recordvault/internal/domain/models"
)

// NodeService handles node tree business logic
type NodeService interface {
	// ListChildren lists live nodes under (ownerID, parentID); nil for root
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error)

	// CreateFolder creates a new folder node
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Node, error)

	// CreateFile creates a new file node with a reserved storage key.
	// Byte content is uploaded separately via UploadContent.
	CreateFile(ctx context.Context, req *CreateFileRequest) (*models.Node, error)

	// GetNode retrieves a node owned by ownerID
	GetNode(ctx context.Context, nodeID, ownerID string) (*models.Node, error)

	// Rename changes a node's display name in place
	Rename(ctx context.Context, nodeID, ownerID, newName string) (*models.Node, error)

	// Delete removes a node; folders cascade to their whole subtree
	Delete(ctx context.Context, nodeID, ownerID string) error

	// UploadContent streams bytes into the object store under the file
	// node's reserved storage key
	UploadContent(ctx context.Context, nodeID, ownerID string, req *UploadContentRequest) error

	// DownloadURL returns a presigned byte-access URL for a file node
	DownloadURL(ctx context.Context, nodeID, ownerID string) (string, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	OwnerID  string  `json:"-"`
	ParentID *string `json:"parent_id,omitempty"` // null for root
	Name     string  `json:"name"`
}

// CreateFileRequest represents a file node creation request. The encrypted
// file key is the file's symmetric key wrapped under the account key; the
// backend stores it without interpreting it.
type CreateFileRequest struct {
	OwnerID          string  `json:"-"`
	ParentID         *string `json:"parent_id,omitempty"`
	Name             string  `json:"name"`
	MimeType         string  `json:"mime_type"`
	EncryptedFileKey string  `json:"encrypted_file_key"`
}

// RenameNodeRequest represents a rename request
type RenameNodeRequest struct {
	Name string `json:"name"`
}

// UploadContentRequest carries the byte stream for a file node's content
type UploadContentRequest struct {
	Body          io.Reader
	ContentType   string
	ContentLength int64
}
