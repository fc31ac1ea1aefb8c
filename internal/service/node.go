package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"recordvault/internal/config"
	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/repositories"
	"recordvault/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// storageKeyUnsafe matches characters that are stripped from file names
// before they are embedded in an object-store key.
var storageKeyUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type nodeService struct {
	nodeRepo    repositories.NodeRepository
	shareRepo   repositories.ShareRepository
	objectStore services.ObjectStore
	txManager   repositories.TransactionManager
	authorizer  services.ResourceAuthorizer
	logger      *slog.Logger
	presignTTL  time.Duration
}

// NewNodeService creates a new node tree service
func NewNodeService(
	nodeRepo repositories.NodeRepository,
	shareRepo repositories.ShareRepository,
	objectStore services.ObjectStore,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
	presignTTL time.Duration,
) services.NodeService {
	if presignTTL <= 0 {
		presignTTL = config.DefaultPresignTTL
	}
	return &nodeService{
		nodeRepo:    nodeRepo,
		shareRepo:   shareRepo,
		objectStore: objectStore,
		txManager:   txManager,
		authorizer:  authorizer,
		logger:      logger,
		presignTTL:  presignTTL,
	}
}

// ListChildren lists live nodes under (ownerID, parentID); nil for root
func (s *nodeService) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	parentID = normalizeParent(parentID)

	nodes, err := s.nodeRepo.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	return nodes, nil
}

// CreateFolder creates a new folder node
func (s *nodeService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Node, error) {
	req.ParentID = normalizeParent(req.ParentID)
	req.Name = strings.TrimSpace(req.Name)

	if err := validateNodeName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Early exit on duplicates. The storage-layer unique index is the real
	// guard; Create translates its violation to the same conflict.
	if err := s.checkSibling(ctx, req.OwnerID, req.ParentID, req.Name, "folder"); err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &models.Node{
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Type:      models.NodeTypeFolder,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.nodeRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// CreateFile creates a new file node with a reserved storage key.
// The bytes are uploaded separately; a failed upload leaves an orphaned key,
// never a dangling record.
func (s *nodeService) CreateFile(ctx context.Context, req *services.CreateFileRequest) (*models.Node, error) {
	req.ParentID = normalizeParent(req.ParentID)
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validateCreateFile(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.checkSibling(ctx, req.OwnerID, req.ParentID, req.Name, "file"); err != nil {
		return nil, err
	}

	now := time.Now()
	file := &models.Node{
		OwnerID:          req.OwnerID,
		ParentID:         req.ParentID,
		Type:             models.NodeTypeFile,
		Name:             req.Name,
		MimeType:         req.MimeType,
		StorageKey:       generateStorageKey(req.OwnerID, req.Name),
		EncryptedFileKey: req.EncryptedFileKey,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.nodeRepo.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file node created",
		"id", file.ID,
		"name", file.Name,
		"owner_id", file.OwnerID,
		"parent_id", file.ParentID,
		"storage_key", file.StorageKey,
	)

	return file, nil
}

// GetNode retrieves a node owned by ownerID
func (s *nodeService) GetNode(ctx context.Context, nodeID, ownerID string) (*models.Node, error) {
	return s.getOwned(ctx, nodeID, ownerID)
}

// Rename changes a node's display name in place. Renaming a node to its
// current name is a no-op success.
func (s *nodeService) Rename(ctx context.Context, nodeID, ownerID, newName string) (*models.Node, error) {
	node, err := s.getOwned(ctx, nodeID, ownerID)
	if err != nil {
		return nil, err
	}

	newName = strings.TrimSpace(newName)
	if err := validateNodeName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if newName == node.Name {
		return node, nil
	}

	if err := s.checkSibling(ctx, ownerID, node.ParentID, newName, string(node.Type)); err != nil {
		return nil, err
	}

	node.Name = newName
	node.UpdatedAt = time.Now()

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node renamed",
		"id", node.ID,
		"name", node.Name,
		"owner_id", node.OwnerID,
	)

	return node, nil
}

// Delete removes a node; folders cascade to their whole subtree.
//
// All metadata deletes run in one transaction so a failed traversal leaves
// the tree untouched. Byte content is released best-effort after commit:
// an object-store failure is logged, never surfaced, so metadata and byte
// storage can diverge toward orphaned objects but never dangling records.
func (s *nodeService) Delete(ctx context.Context, nodeID, ownerID string) error {
	node, err := s.getOwned(ctx, nodeID, ownerID)
	if err != nil {
		return err
	}

	var storageKeys []string

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		keys, err := s.deleteSubtree(txCtx, node)
		if err != nil {
			return err
		}
		storageKeys = keys
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("node deleted",
		"id", node.ID,
		"name", node.Name,
		"type", node.Type,
		"owner_id", node.OwnerID,
		"released_objects", len(storageKeys),
	)

	s.releaseObjects(ctx, storageKeys)

	return nil
}

// deleteSubtree removes node and all of its descendants, children before
// parents, using an explicit stack so arbitrarily deep trees cannot blow
// the goroutine stack. Returns the storage keys of every deleted file.
func (s *nodeService) deleteSubtree(ctx context.Context, root *models.Node) ([]string, error) {
	type frame struct {
		node     models.Node
		expanded bool
	}

	var storageKeys []string
	stack := []frame{{node: *root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.node.IsFolder() && !top.expanded {
			top.expanded = true
			children, err := s.nodeRepo.ListChildren(ctx, top.node.OwnerID, &top.node.ID)
			if err != nil {
				return nil, fmt.Errorf("list children of %s: %w", top.node.ID, err)
			}
			for _, child := range children {
				stack = append(stack, frame{node: child})
			}
			continue
		}

		// Leaf, or folder whose children are already gone
		stack = stack[:len(stack)-1]

		if err := s.shareRepo.DeleteByNode(ctx, top.node.ID); err != nil {
			return nil, err
		}
		if err := s.nodeRepo.Delete(ctx, top.node.ID); err != nil {
			return nil, err
		}
		if top.node.Type == models.NodeTypeFile && top.node.StorageKey != "" {
			storageKeys = append(storageKeys, top.node.StorageKey)
		}

		s.logger.Debug("deleted node record", "id", top.node.ID, "name", top.node.Name, "type", top.node.Type)
	}

	return storageKeys, nil
}

// releaseObjects deletes byte content best-effort after the metadata commit
func (s *nodeService) releaseObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.objectStore.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to release object content", "storage_key", key, "error", err)
		}
	}
}

// UploadContent streams bytes into the object store under the file node's
// reserved storage key. The upload is synchronous: a failure is returned to
// the caller and the metadata record is unaffected.
func (s *nodeService) UploadContent(ctx context.Context, nodeID, ownerID string, req *services.UploadContentRequest) error {
	node, err := s.getOwned(ctx, nodeID, ownerID)
	if err != nil {
		return err
	}

	if node.Type != models.NodeTypeFile {
		return fmt.Errorf("%w: node %s is not a file", domain.ErrValidation, nodeID)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = node.MimeType
	}

	if err := s.objectStore.Put(ctx, node.StorageKey, req.Body, contentType, req.ContentLength); err != nil {
		return fmt.Errorf("upload content for node %s: %w", nodeID, err)
	}

	s.logger.Info("content uploaded",
		"id", node.ID,
		"storage_key", node.StorageKey,
		"content_length", req.ContentLength,
	)

	return nil
}

// DownloadURL returns a presigned byte-access URL for a file node
func (s *nodeService) DownloadURL(ctx context.Context, nodeID, ownerID string) (string, error) {
	node, err := s.getOwned(ctx, nodeID, ownerID)
	if err != nil {
		return "", err
	}

	if node.Type != models.NodeTypeFile {
		return "", fmt.Errorf("%w: node %s is not a file", domain.ErrValidation, nodeID)
	}

	url, err := s.objectStore.PresignDownload(ctx, node.StorageKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign download for node %s: %w", nodeID, err)
	}

	return url, nil
}

// getOwned fetches a node and checks the caller owns it
func (s *nodeService) getOwned(ctx context.Context, nodeID, ownerID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.CanAccessNode(ctx, ownerID, node); err != nil {
		return nil, err
	}

	return node, nil
}

// checkSibling returns a ConflictError when a live sibling already uses name
func (s *nodeService) checkSibling(ctx context.Context, ownerID string, parentID *string, name, resourceType string) error {
	exists, err := s.nodeRepo.ExistsSibling(ctx, ownerID, parentID, name)
	if err != nil {
		return fmt.Errorf("check for duplicate names: %w", err)
	}
	if exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("a node named %q already exists in this location", name),
			ResourceType: resourceType,
		}
	}
	return nil
}

// validateNodeName validates a display name shared by folders and files
func validateNodeName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxNodeNameLength),
		validation.Match(regexp.MustCompile(`^[^/]+$`)).Error("name cannot contain slashes"),
	)
}

// validateCreateFile validates a file creation request
func (s *nodeService) validateCreateFile(req *services.CreateFileRequest) error {
	if err := validateNodeName(req.Name); err != nil {
		return err
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.MimeType, validation.Length(0, config.MaxMimeTypeLength)),
		validation.Field(&req.EncryptedFileKey, validation.Required),
	)
}

// generateStorageKey builds a collision-resistant object-store key:
// ownerID/uuid_sanitizedName. The random component makes the key unique
// even when the same name is re-created.
func generateStorageKey(ownerID, fileName string) string {
	safe := storageKeyUnsafe.ReplaceAllString(fileName, "-")
	return fmt.Sprintf("%s/%s_%s", ownerID, uuid.NewString(), safe)
}

// normalizeParent maps an empty-string parent to nil for root-level nodes
func normalizeParent(parentID *string) *string {
	if parentID != nil && *parentID == "" {
		return nil
	}
	return parentID
}
