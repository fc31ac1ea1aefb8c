package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"recordvault/internal/domain"
	"recordvault/internal/domain/models"
	"recordvault/internal/domain/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNodeService() (services.NodeService, *fakeNodeRepo, *fakeShareRepo, *fakeObjectStore) {
	nodeRepo := newFakeNodeRepo()
	shareRepo := newFakeShareRepo()
	store := newFakeObjectStore()
	svc := NewNodeService(nodeRepo, shareRepo, store, noopTxManager{}, NewOwnershipAuthorizer(), testLogger(), time.Minute)
	return svc, nodeRepo, shareRepo, store
}

func mustCreateFolder(t *testing.T, svc services.NodeService, ownerID string, parentID *string, name string) *models.Node {
	t.Helper()
	folder, err := svc.CreateFolder(context.Background(), &services.CreateFolderRequest{
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     name,
	})
	if err != nil {
		t.Fatalf("CreateFolder(%q) failed: %v", name, err)
	}
	return folder
}

func mustCreateFile(t *testing.T, svc services.NodeService, ownerID string, parentID *string, name string) *models.Node {
	t.Helper()
	file, err := svc.CreateFile(context.Background(), &services.CreateFileRequest{
		OwnerID:          ownerID,
		ParentID:         parentID,
		Name:             name,
		MimeType:         "application/pdf",
		EncryptedFileKey: "wrapped-key",
	})
	if err != nil {
		t.Fatalf("CreateFile(%q) failed: %v", name, err)
	}
	return file
}

func TestCreateFolderValidation(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	tests := []struct {
		name       string
		folderName string
	}{
		{"empty name", ""},
		{"whitespace only name", "   "},
		{"name with slash", "lab/results"},
		{"name too long", strings.Repeat("x", 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateFolder(context.Background(), &services.CreateFolderRequest{
				OwnerID: "owner-1",
				Name:    tt.folderName,
			})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateFolderDuplicateSibling(t *testing.T) {
	svc, _, _, _ := newTestNodeService()
	ctx := context.Background()

	parent := mustCreateFolder(t, svc, "owner-1", nil, "Records")
	mustCreateFolder(t, svc, "owner-1", &parent.ID, "2024")

	// Same name under the same parent conflicts
	_, err := svc.CreateFolder(ctx, &services.CreateFolderRequest{
		OwnerID:  "owner-1",
		ParentID: &parent.ID,
		Name:     "2024",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// A file may not reuse a folder's name either
	_, err = svc.CreateFile(ctx, &services.CreateFileRequest{
		OwnerID:          "owner-1",
		ParentID:         &parent.ID,
		Name:             "2024",
		EncryptedFileKey: "wrapped-key",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for file reusing folder name, got %v", err)
	}

	// Same name under a different parent is fine
	other := mustCreateFolder(t, svc, "owner-1", nil, "Archive")
	mustCreateFolder(t, svc, "owner-1", &other.ID, "2024")

	// Same name for a different owner is fine
	mustCreateFolder(t, svc, "owner-2", nil, "Records")
}

func TestCreateFolderEmptyParentMeansRoot(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	empty := ""
	folder, err := svc.CreateFolder(context.Background(), &services.CreateFolderRequest{
		OwnerID:  "owner-1",
		ParentID: &empty,
		Name:     "Records",
	})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if folder.ParentID != nil {
		t.Errorf("expected nil parent for empty-string parent_id, got %v", *folder.ParentID)
	}
}

func TestCreateFileStorageKey(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	file := mustCreateFile(t, svc, "owner-1", nil, "blood test (final).pdf")

	if !strings.HasPrefix(file.StorageKey, "owner-1/") {
		t.Errorf("storage key %q should be scoped under the owner", file.StorageKey)
	}
	if !strings.HasSuffix(file.StorageKey, "_blood-test-final-.pdf") {
		t.Errorf("storage key %q should end with the sanitized file name", file.StorageKey)
	}

	// Re-creating the same name elsewhere must yield a distinct key
	parent := mustCreateFolder(t, svc, "owner-1", nil, "Archive")
	second := mustCreateFile(t, svc, "owner-1", &parent.ID, "blood test (final).pdf")
	if second.StorageKey == file.StorageKey {
		t.Error("two file nodes share the same storage key")
	}
}

func TestCreateFileRequiresEncryptedKey(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	_, err := svc.CreateFile(context.Background(), &services.CreateFileRequest{
		OwnerID: "owner-1",
		Name:    "scan.pdf",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without encrypted file key, got %v", err)
	}
}

func TestRenameToSameNameIsNoOp(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")

	renamed, err := svc.Rename(context.Background(), folder.ID, "owner-1", "Records")
	if err != nil {
		t.Fatalf("Rename to same name failed: %v", err)
	}
	if renamed.Name != "Records" {
		t.Errorf("name changed unexpectedly: %q", renamed.Name)
	}
}

func TestRenameDuplicateSibling(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	mustCreateFolder(t, svc, "owner-1", nil, "Records")
	archive := mustCreateFolder(t, svc, "owner-1", nil, "Archive")

	_, err := svc.Rename(context.Background(), archive.ID, "owner-1", "Records")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRenameCrossAccountForbidden(t *testing.T) {
	svc, nodeRepo, _, _ := newTestNodeService()
	ctx := context.Background()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")

	_, err := svc.Rename(ctx, folder.ID, "owner-2", "Stolen")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// The node must be untouched
	stored, err := nodeRepo.GetByID(ctx, folder.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Name != "Records" {
		t.Errorf("name changed by forbidden rename: %q", stored.Name)
	}
}

func TestGetNodeCrossAccountForbidden(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")

	_, err := svc.GetNode(context.Background(), folder.ID, "owner-2")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteFolderCascades(t *testing.T) {
	svc, nodeRepo, shareRepo, store := newTestNodeService()
	ctx := context.Background()

	// F -> F1 -> G, with files at two levels
	f := mustCreateFolder(t, svc, "owner-1", nil, "F")
	f1 := mustCreateFolder(t, svc, "owner-1", &f.ID, "F1")
	g := mustCreateFolder(t, svc, "owner-1", &f1.ID, "G")
	topFile := mustCreateFile(t, svc, "owner-1", &f.ID, "top.pdf")
	deepFile := mustCreateFile(t, svc, "owner-1", &g.ID, "deep.pdf")

	// An unrelated sibling tree survives
	keep := mustCreateFolder(t, svc, "owner-1", nil, "Keep")

	// A share on a descendant is cleaned up too
	shareRepo.Create(ctx, &models.Share{Token: "tok-1", NodeID: deepFile.ID, OwnerID: "owner-1", ExpiresAt: time.Now().Add(time.Hour)})

	if err := svc.Delete(ctx, f.ID, "owner-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, id := range []string{f.ID, f1.ID, g.ID, topFile.ID, deepFile.ID} {
		if _, err := nodeRepo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("node %s survived cascade delete", id)
		}
	}
	if _, err := nodeRepo.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("unrelated node deleted: %v", err)
	}
	if n := shareRepo.countForNode(deepFile.ID); n != 0 {
		t.Errorf("expected shares cleaned up, %d remain", n)
	}

	// Byte content of both files was released
	if len(store.deleted) != 2 {
		t.Errorf("expected 2 released objects, got %d (%v)", len(store.deleted), store.deleted)
	}
}

func TestDeleteFile(t *testing.T) {
	svc, nodeRepo, _, store := newTestNodeService()
	ctx := context.Background()

	file := mustCreateFile(t, svc, "owner-1", nil, "scan.pdf")
	sibling := mustCreateFile(t, svc, "owner-1", nil, "other.pdf")

	if err := svc.Delete(ctx, file.ID, "owner-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := nodeRepo.GetByID(ctx, sibling.ID); err != nil {
		t.Errorf("sibling deleted: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != file.StorageKey {
		t.Errorf("expected release of %q, got %v", file.StorageKey, store.deleted)
	}
}

func TestDeleteEmptyFolder(t *testing.T) {
	svc, nodeRepo, _, store := newTestNodeService()
	ctx := context.Background()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Empty")

	if err := svc.Delete(ctx, folder.ID, "owner-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if nodeRepo.count() != 0 {
		t.Errorf("expected empty repo, %d nodes remain", nodeRepo.count())
	}
	if len(store.deleted) != 0 {
		t.Errorf("folder delete released objects: %v", store.deleted)
	}
}

func TestDoubleDelete(t *testing.T) {
	svc, _, _, _ := newTestNodeService()
	ctx := context.Background()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")

	if err := svc.Delete(ctx, folder.ID, "owner-1"); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, folder.ID, "owner-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeleteCrossAccountForbidden(t *testing.T) {
	svc, nodeRepo, _, _ := newTestNodeService()
	ctx := context.Background()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")

	if err := svc.Delete(ctx, folder.ID, "owner-2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := nodeRepo.GetByID(ctx, folder.ID); err != nil {
		t.Errorf("node deleted by forbidden caller: %v", err)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	svc, _, _, _ := newTestNodeService()
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateFolder(ctx, &services.CreateFolderRequest{
				OwnerID: "owner-1",
				Name:    "Records",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrConflict):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if created != 1 {
		t.Errorf("expected exactly 1 successful create, got %d", created)
	}
	if conflicted != writers-1 {
		t.Errorf("expected %d conflicts, got %d", writers-1, conflicted)
	}
}

func TestUploadContent(t *testing.T) {
	svc, _, _, store := newTestNodeService()
	ctx := context.Background()

	file := mustCreateFile(t, svc, "owner-1", nil, "scan.pdf")

	content := "encrypted bytes"
	err := svc.UploadContent(ctx, file.ID, "owner-1", &services.UploadContentRequest{
		Body:          strings.NewReader(content),
		ContentType:   "application/octet-stream",
		ContentLength: int64(len(content)),
	})
	if err != nil {
		t.Fatalf("UploadContent failed: %v", err)
	}

	if got := string(store.objects[file.StorageKey]); got != content {
		t.Errorf("stored content = %q, want %q", got, content)
	}
}

func TestUploadContentToFolderRejected(t *testing.T) {
	svc, _, _, _ := newTestNodeService()

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")

	err := svc.UploadContent(context.Background(), folder.ID, "owner-1", &services.UploadContentRequest{
		Body: strings.NewReader("x"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDownloadURL(t *testing.T) {
	svc, _, _, _ := newTestNodeService()
	ctx := context.Background()

	file := mustCreateFile(t, svc, "owner-1", nil, "scan.pdf")

	url, err := svc.DownloadURL(ctx, file.ID, "owner-1")
	if err != nil {
		t.Fatalf("DownloadURL failed: %v", err)
	}
	if !strings.Contains(url, file.StorageKey) {
		t.Errorf("URL %q does not reference storage key %q", url, file.StorageKey)
	}

	folder := mustCreateFolder(t, svc, "owner-1", nil, "Records")
	if _, err := svc.DownloadURL(ctx, folder.ID, "owner-1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for folder download, got %v", err)
	}
}

func TestListChildren(t *testing.T) {
	svc, _, _, _ := newTestNodeService()
	ctx := context.Background()

	parent := mustCreateFolder(t, svc, "owner-1", nil, "Records")
	mustCreateFolder(t, svc, "owner-1", &parent.ID, "2024")
	mustCreateFile(t, svc, "owner-1", &parent.ID, "scan.pdf")
	mustCreateFolder(t, svc, "owner-2", nil, "Records")

	children, err := svc.ListChildren(ctx, "owner-1", &parent.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 2 {
		t.Errorf("expected 2 children, got %d", len(children))
	}

	roots, err := svc.ListChildren(ctx, "owner-1", nil)
	if err != nil {
		t.Fatalf("ListChildren(root) failed: %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "Records" {
		t.Errorf("unexpected root listing: %+v", roots)
	}
}
