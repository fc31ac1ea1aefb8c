package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/repositories"
)

// PostgresShareRepository implements the ShareRepository interface
type PostgresShareRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewShareRepository creates a new share repository
func NewShareRepository(config *RepositoryConfig) repositories.ShareRepository {
	return &PostgresShareRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new share and fills in its generated ID
func (r *PostgresShareRepository) Create(ctx context.Context, share *models.Share) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (token, node_id, owner_id, recipient_email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Shares)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		share.Token,
		share.NodeID,
		share.OwnerID,
		share.RecipientEmail,
		share.ExpiresAt,
		share.CreatedAt,
	).Scan(&share.ID, &share.CreatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "share token collision",
				ResourceType: "share",
			}
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("shared node %s: %w", share.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("create share: %w", err)
	}

	return nil
}

// GetByToken retrieves a share by its redemption token
func (r *PostgresShareRepository) GetByToken(ctx context.Context, token string) (*models.Share, error) {
	query := fmt.Sprintf(`
		SELECT id, token, node_id, owner_id, recipient_email, expires_at, created_at
		FROM %s
		WHERE token = $1
	`, r.tables.Shares)

	var share models.Share
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, token).Scan(
		&share.ID,
		&share.Token,
		&share.NodeID,
		&share.OwnerID,
		&share.RecipientEmail,
		&share.ExpiresAt,
		&share.CreatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("share: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get share: %w", err)
	}

	return &share, nil
}

// DeleteByNode removes all shares pointing at a node
func (r *PostgresShareRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE node_id = $1
	`, r.tables.Shares)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, nodeID); err != nil {
		return fmt.Errorf("delete shares for node: %w", err)
	}

	return nil
}
