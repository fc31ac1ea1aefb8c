package models

import (
	"time"
)

// NodeType distinguishes folders from files in the namespace.
type NodeType string

const (
	NodeTypeFolder NodeType = "folder"
	NodeTypeFile   NodeType = "file"
)

// Node is a single entry in an account's hierarchical namespace.
// Folders contain other nodes via ParentID; files additionally carry the
// storage key locating their byte content in the object store and the
// file key material encrypted under the account key (opaque to the backend).
type Node struct {
	ID               string    `json:"id" db:"id"`
	OwnerID          string    `json:"owner_id" db:"owner_id"`
	ParentID         *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Type             NodeType  `json:"type" db:"type"`
	Name             string    `json:"name" db:"name"`
	MimeType         string    `json:"mime_type,omitempty" db:"mime_type"`
	StorageKey       string    `json:"storage_key,omitempty" db:"storage_key"`
	EncryptedFileKey string    `json:"encrypted_file_key,omitempty" db:"encrypted_file_key"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	// DownloadURL is a presigned byte-access URL, computed on demand for
	// file nodes. Not stored in the database.
	DownloadURL string `json:"download_url,omitempty"`
}

// IsFolder reports whether the node can contain children.
func (n *Node) IsFolder() bool {
	return n.Type == NodeTypeFolder
}
