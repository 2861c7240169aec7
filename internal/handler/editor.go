package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"gottadoit/internal/domain"
	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/httputil"
)

// EditorHandler handles flow node editing HTTP requests
type EditorHandler struct {
	flowService services.FlowService
	logger      *slog.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(flowService services.FlowService, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		flowService: flowService,
		logger:      logger,
	}
}

// AddNodeRequest names the node type to synthesize.
type AddNodeRequest struct {
	Type models.NodeType `json:"type"`
}

// NodeEditResponse pairs a node with its parent id for the edit view.
type NodeEditResponse struct {
	Node     *models.Node `json:"node"`
	ParentID string       `json:"parentId,omitempty"`
}

// GetNode retrieves a node and its parent id for editing
// GET /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}
func (h *EditorHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	orgID, nodeID, ok := nodeParams(w, r)
	if !ok {
		return
	}

	node, parent, err := h.flowService.BeginEdit(r.Context(), orgID, nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := NodeEditResponse{Node: node}
	if parent != nil {
		resp.ParentID = parent.ID
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// UpdateNode commits an edited node back into the flow. Node ids are
// immutable through this path: a body id that disagrees with the path id
// is rejected rather than applied to either node.
// PUT /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}
func (h *EditorHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	orgID, nodeID, ok := nodeParams(w, r)
	if !ok {
		return
	}

	var node models.Node
	if err := httputil.ParseJSON(w, r, &node); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if node.ID != "" && node.ID != nodeID {
		handleError(w, &domain.ValidationError{
			Message: fmt.Sprintf("node id %q does not match %q: renaming a node is not supported", node.ID, nodeID),
		})
		return
	}
	node.ID = nodeID

	doc, err := h.flowService.CommitNodeEdit(r.Context(), orgID, &node)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteNode removes a node and its whole subtree
// DELETE /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}
func (h *EditorHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	orgID, nodeID, ok := nodeParams(w, r)
	if !ok {
		return
	}

	doc, err := h.flowService.DeleteNode(r.Context(), orgID, nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// AddChild appends a synthesized node under the given parent
// POST /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}/children
func (h *EditorHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	orgID, nodeID, ok := nodeParams(w, r)
	if !ok {
		return
	}

	var req AddNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.flowService.AddChild(r.Context(), orgID, nodeID, req.Type)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// AddSibling appends a synthesized node next to the given node
// POST /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}/siblings
func (h *EditorHandler) AddSibling(w http.ResponseWriter, r *http.Request) {
	orgID, nodeID, ok := nodeParams(w, r)
	if !ok {
		return
	}

	var req AddNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.flowService.AddSibling(r.Context(), orgID, nodeID, req.Type)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

func nodeParams(w http.ResponseWriter, r *http.Request) (orgID, nodeID string, ok bool) {
	orgID = r.PathValue("orgID")
	nodeID = r.PathValue("nodeID")
	if orgID == "" || nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Organization ID and node ID are required")
		return "", "", false
	}
	return orgID, nodeID, true
}
