package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/repositories"
)

// PostgresNodeRepository implements the NodeRepository interface.
//
// The nodes table carries a unique index over (owner_id, parent_id, name)
// plus a partial index for parent_id IS NULL, so sibling uniqueness holds
// even under concurrent writers; constraint violations surface here as
// domain.ErrConflict.
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new node and fills in its generated ID
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, parent_id, type, name, mime_type, storage_key, encrypted_file_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Nodes)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		node.OwnerID,
		node.ParentID,
		node.Type,
		node.Name,
		node.MimeType,
		node.StorageKey,
		node.EncryptedFileKey,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a node named %q already exists in this location", node.Name),
				ResourceType: string(node.Type),
			}
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by ID regardless of owner
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, parent_id, type, name, mime_type, storage_key, encrypted_file_key, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Nodes)

	var node models.Node
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Type,
		&node.Name,
		&node.MimeType,
		&node.StorageKey,
		&node.EncryptedFileKey,
		&node.CreatedAt,
		&node.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// Update persists name/updated_at changes for an existing node
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, updated_at = $2
		WHERE id = $3
	`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		node.Name,
		node.UpdatedAt,
		node.ID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a node named %q already exists in this location", node.Name),
				ResourceType: string(node.Type),
			}
		}
		return fmt.Errorf("update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a node record by ID
func (r *PostgresNodeRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists live nodes under (ownerID, parentID); nil parentID means root level
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT id, owner_id, parent_id, type, name, mime_type, storage_key, encrypted_file_key, created_at, updated_at
			FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL
			ORDER BY name ASC
		`, r.tables.Nodes)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT id, owner_id, parent_id, type, name, mime_type, storage_key, encrypted_file_key, created_at, updated_at
			FROM %s
			WHERE owner_id = $1 AND parent_id = $2
			ORDER BY name ASC
		`, r.tables.Nodes)
		args = append(args, ownerID, *parentID)
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.OwnerID,
			&node.ParentID,
			&node.Type,
			&node.Name,
			&node.MimeType,
			&node.StorageKey,
			&node.EncryptedFileKey,
			&node.CreatedAt,
			&node.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// ExistsSibling reports whether a live node named name exists under (ownerID, parentID)
func (r *PostgresNodeRepository) ExistsSibling(ctx context.Context, ownerID string, parentID *string, name string) (bool, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT EXISTS (
				SELECT 1 FROM %s
				WHERE owner_id = $1 AND parent_id IS NULL AND name = $2
			)
		`, r.tables.Nodes)
		args = append(args, ownerID, name)
	} else {
		query = fmt.Sprintf(`
			SELECT EXISTS (
				SELECT 1 FROM %s
				WHERE owner_id = $1 AND parent_id = $2 AND name = $3
			)
		`, r.tables.Nodes)
		args = append(args, ownerID, *parentID, name)
	}

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check sibling: %w", err)
	}

	return exists, nil
}
