package handler

import (
	"log/slog"
	"net/http"

	"recordvault/internal/domain/services"
	"recordvault/internal/httputil"
)

// ShareHandler handles HTTP requests for share links
type ShareHandler struct {
	shareService services.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService services.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// CreateShare creates a share link for a node and emails it to the recipient
// POST /api/shares
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req services.CreateShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = httputil.GetOwnerID(r)

	share, err := h.shareService.CreateShare(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, share)
}

// ResolveShare redeems a share token and returns the shared node.
// This endpoint is public: the token itself is the credential.
// GET /api/shares/{token}
func (h *ShareHandler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		httputil.RespondError(w, http.StatusBadRequest, "share token is required")
		return
	}

	node, err := h.shareService.ResolveShare(r.Context(), token)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}
