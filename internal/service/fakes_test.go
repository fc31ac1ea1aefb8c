package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/repositories"
)

// fakeNodeRepo is an in-memory NodeRepository. It enforces the same sibling
// uniqueness constraint as the real table's unique indexes, under a mutex,
// so concurrency tests exercise the same "one winner" behavior.
type fakeNodeRepo struct {
	mu     sync.Mutex
	nodes  map[string]*models.Node
	nextID int
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[string]*models.Node)}
}

func siblingKey(ownerID string, parentID *string, name string) string {
	parent := ""
	if parentID != nil {
		parent = *parentID
	}
	return ownerID + "|" + parent + "|" + name
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := siblingKey(node.OwnerID, node.ParentID, node.Name)
	for _, existing := range r.nodes {
		if siblingKey(existing.OwnerID, existing.ParentID, existing.Name) == key {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a node named %q already exists in this location", node.Name),
				ResourceType: string(node.Type),
			}
		}
	}

	r.nextID++
	node.ID = fmt.Sprintf("node-%d", r.nextID)
	copied := *node
	r.nodes[node.ID] = &copied
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	copied := *node
	return &copied, nil
}

func (r *fakeNodeRepo) Update(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.nodes[node.ID]
	if !ok {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	key := siblingKey(node.OwnerID, node.ParentID, node.Name)
	for id, other := range r.nodes {
		if id != node.ID && siblingKey(other.OwnerID, other.ParentID, other.Name) == key {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a node named %q already exists in this location", node.Name),
				ResourceType: string(node.Type),
			}
		}
	}

	existing.Name = node.Name
	existing.UpdatedAt = node.UpdatedAt
	return nil
}

func (r *fakeNodeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var children []models.Node
	for _, node := range r.nodes {
		if node.OwnerID != ownerID {
			continue
		}
		switch {
		case parentID == nil && node.ParentID == nil:
			children = append(children, *node)
		case parentID != nil && node.ParentID != nil && *node.ParentID == *parentID:
			children = append(children, *node)
		}
	}
	return children, nil
}

func (r *fakeNodeRepo) ExistsSibling(ctx context.Context, ownerID string, parentID *string, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := siblingKey(ownerID, parentID, name)
	for _, node := range r.nodes {
		if siblingKey(node.OwnerID, node.ParentID, node.Name) == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNodeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// fakeShareRepo is an in-memory ShareRepository
type fakeShareRepo struct {
	mu     sync.Mutex
	shares map[string]*models.Share // keyed by token
	nextID int
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: make(map[string]*models.Share)}
}

func (r *fakeShareRepo) Create(ctx context.Context, share *models.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shares[share.Token]; ok {
		return &domain.ConflictError{Message: "share token collision", ResourceType: "share"}
	}

	r.nextID++
	share.ID = fmt.Sprintf("share-%d", r.nextID)
	copied := *share
	r.shares[share.Token] = &copied
	return nil
}

func (r *fakeShareRepo) GetByToken(ctx context.Context, token string) (*models.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	share, ok := r.shares[token]
	if !ok {
		return nil, fmt.Errorf("share: %w", domain.ErrNotFound)
	}
	copied := *share
	return &copied, nil
}

func (r *fakeShareRepo) DeleteByNode(ctx context.Context, nodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, share := range r.shares {
		if share.NodeID == nodeID {
			delete(r.shares, token)
		}
	}
	return nil
}

func (r *fakeShareRepo) countForNode(nodeID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, share := range r.shares {
		if share.NodeID == nodeID {
			n++
		}
	}
	return n
}

// fakeObjectStore is an in-memory ObjectStore
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string, contentLength int64) error {
	if s.putErr != nil {
		return s.putErr
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeObjectStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://objects.test/" + key + "?signed=1", nil
}

// noopTxManager runs the function directly; the fakes have no transactions
type noopTxManager struct{}

func (noopTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeNotifier records outbound mail
type fakeNotifier struct {
	mu         sync.Mutex
	shareMails []shareMail
	failSend   error
}

type shareMail struct {
	email      string
	link       string
	senderName string
}

func (n *fakeNotifier) SendOTP(ctx context.Context, email, code string) error {
	return n.failSend
}

func (n *fakeNotifier) SendShareLink(ctx context.Context, email, link, senderName string) error {
	if n.failSend != nil {
		return n.failSend
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shareMails = append(n.shareMails, shareMail{email: email, link: link, senderName: senderName})
	return nil
}
