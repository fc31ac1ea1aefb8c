package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recordvault/internal/config"
	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/repositories"
	"recordvault/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

type shareService struct {
	shareRepo   repositories.ShareRepository
	nodeRepo    repositories.NodeRepository
	objectStore services.ObjectStore
	authorizer  services.ResourceAuthorizer
	notifier    services.Notifier
	logger      *slog.Logger
	baseURL     string
	defaultTTL  time.Duration
	presignTTL  time.Duration
}

// NewShareService creates a new share service. baseURL is the public URL
// prefix share links are built from, e.g. "https://records.example.com".
func NewShareService(
	shareRepo repositories.ShareRepository,
	nodeRepo repositories.NodeRepository,
	objectStore services.ObjectStore,
	authorizer services.ResourceAuthorizer,
	notifier services.Notifier,
	logger *slog.Logger,
	baseURL string,
	defaultTTL time.Duration,
) services.ShareService {
	if defaultTTL <= 0 {
		defaultTTL = config.DefaultShareTTL
	}
	return &shareService{
		shareRepo:   shareRepo,
		nodeRepo:    nodeRepo,
		objectStore: objectStore,
		authorizer:  authorizer,
		notifier:    notifier,
		logger:      logger,
		baseURL:     baseURL,
		defaultTTL:  defaultTTL,
		presignTTL:  config.DefaultPresignTTL,
	}
}

// CreateShare creates a share token for a node and emails the link to the
// recipient. Delivery is fire-and-forget: a mail failure is logged, the
// share itself stands.
func (s *shareService) CreateShare(ctx context.Context, req *services.CreateShareRequest) (*models.Share, error) {
	if err := s.validateCreateShare(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.nodeRepo.GetByID(ctx, req.NodeID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessNode(ctx, req.OwnerID, node); err != nil {
		return nil, err
	}

	ttl := req.TTL
	if ttl <= 0 && req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now()
	share := &models.Share{
		Token:          uuid.NewString(),
		NodeID:         node.ID,
		OwnerID:        req.OwnerID,
		RecipientEmail: req.RecipientEmail,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	}

	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/shares/%s", s.baseURL, share.Token)
	if err := s.notifier.SendShareLink(ctx, share.RecipientEmail, link, req.SenderName); err != nil {
		s.logger.Warn("share notification failed",
			"share_id", share.ID,
			"recipient", share.RecipientEmail,
			"error", err,
		)
	}

	s.logger.Info("share created",
		"id", share.ID,
		"node_id", share.NodeID,
		"owner_id", share.OwnerID,
		"expires_at", share.ExpiresAt,
	)

	return share, nil
}

// ResolveShare redeems a share token, returning the shared node with a
// presigned download URL for file nodes. Expired and unknown tokens are
// indistinguishable to the caller.
func (s *shareService) ResolveShare(ctx context.Context, token string) (*models.Node, error) {
	share, err := s.shareRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if share.Expired(time.Now()) {
		return nil, fmt.Errorf("share: %w", domain.ErrNotFound)
	}

	node, err := s.nodeRepo.GetByID(ctx, share.NodeID)
	if err != nil {
		return nil, err
	}

	if node.Type == models.NodeTypeFile && node.StorageKey != "" {
		url, err := s.objectStore.PresignDownload(ctx, node.StorageKey, s.presignTTL)
		if err != nil {
			s.logger.Warn("failed to presign shared download", "node_id", node.ID, "error", err)
		} else {
			node.DownloadURL = url
		}
	}

	return node, nil
}

// validateCreateShare validates a share creation request
func (s *shareService) validateCreateShare(req *services.CreateShareRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.NodeID, validation.Required),
		validation.Field(&req.RecipientEmail, validation.Required, is.EmailFormat),
		validation.Field(&req.SenderName, validation.Length(0, config.MaxNodeNameLength)),
	)
}
