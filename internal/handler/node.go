package handler

import (
	"log/slog"
	"net/http"

	"recordvault/internal/config"
	"recordvault/internal/domain/services"
	"recordvault/internal/httputil"
)

// NodeHandler handles HTTP requests for node tree operations
type NodeHandler struct {
	nodeService services.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService services.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// ListNodes lists the children of a parent folder, or root-level nodes
// when parent_id is absent
// GET /api/nodes?parent_id={id}
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	ownerID := httputil.GetOwnerID(r)

	var parentID *string
	if p := r.URL.Query().Get("parent_id"); p != "" {
		parentID = &p
	}

	nodes, err := h.nodeService.ListChildren(r.Context(), ownerID, parentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// CreateFolder creates a new folder node
// POST /api/nodes/folder
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = httputil.GetOwnerID(r)

	folder, err := h.nodeService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// CreateFile creates a new file node. The byte content is uploaded
// separately via UploadContent.
// POST /api/nodes/file
func (h *NodeHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req services.CreateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = httputil.GetOwnerID(r)

	file, err := h.nodeService.CreateFile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetNode retrieves a single node by ID
// GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), id, httputil.GetOwnerID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// RenameNode changes a node's display name
// PATCH /api/nodes/{id}
func (h *NodeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req services.RenameNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.nodeService.Rename(r.Context(), id, httputil.GetOwnerID(r), req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode deletes a node; folders cascade to their whole subtree
// DELETE /api/nodes/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	if err := h.nodeService.Delete(r.Context(), id, httputil.GetOwnerID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadContent streams the request body into the file node's storage slot
// PUT /api/nodes/{id}/content
func (h *NodeHandler) UploadContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
	defer body.Close()

	req := &services.UploadContentRequest{
		Body:          body,
		ContentType:   r.Header.Get("Content-Type"),
		ContentLength: r.ContentLength,
	}

	if err := h.nodeService.UploadContent(r.Context(), id, httputil.GetOwnerID(r), req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadURL returns a time-limited byte-access URL for a file node
// GET /api/nodes/{id}/download
func (h *NodeHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	url, err := h.nodeService.DownloadURL(r.Context(), id, httputil.GetOwnerID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"download_url": url})
}
