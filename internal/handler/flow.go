package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/httputil"
)

// flowVersionHeader carries the stored document version on flow responses.
// Callers pass it back as baseVersion to opt into stale-publish rejection.
const flowVersionHeader = "X-Flow-Version"

// FlowHandler handles onboarding flow HTTP requests
type FlowHandler struct {
	flowService services.FlowService
	logger      *slog.Logger
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowService services.FlowService, logger *slog.Logger) *FlowHandler {
	return &FlowHandler{
		flowService: flowService,
		logger:      logger,
	}
}

// publishEnvelope is the optional wrapper around a publish body. BaseVersion
// opts into stale-publish rejection (409) instead of last-writer-wins.
type publishEnvelope struct {
	Flow        json.RawMessage `json:"flow"`
	BaseVersion *int64          `json:"baseVersion,omitempty"`
}

// decodePublishBody accepts either a bare flow tree (the shape editor
// clients POST) or a {"flow": ..., "baseVersion": ...} envelope.
func decodePublishBody(raw json.RawMessage) (*models.Node, *int64, error) {
	var env publishEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Flow) > 0 && string(env.Flow) != "null" {
		var root models.Node
		if err := json.Unmarshal(env.Flow, &root); err != nil {
			return nil, nil, err
		}
		return &root, env.BaseVersion, nil
	}

	var root models.Node
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, nil, err
	}
	return &root, nil, nil
}

// GetFlow retrieves the organization's published flow tree
// GET /api/orgs/{orgID}/onboarding-flow
func (h *FlowHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Organization ID is required")
		return
	}

	doc, err := h.flowService.GetFlow(r.Context(), orgID)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set(flowVersionHeader, strconv.FormatInt(doc.Version, 10))
	httputil.RespondJSON(w, http.StatusOK, doc.Root)
}

// PublishFlow validates and stores a whole flow tree
// POST /api/orgs/{orgID}/onboarding-flow
func (h *FlowHandler) PublishFlow(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("orgID")
	if orgID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Organization ID is required")
		return
	}

	var raw json.RawMessage
	if err := httputil.ParseJSON(w, r, &raw); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	root, baseVersion, err := decodePublishBody(raw)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid flow tree")
		return
	}

	doc, err := h.flowService.PublishFlow(r.Context(), orgID, root, baseVersion)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set(flowVersionHeader, strconv.FormatInt(doc.Version, 10))
	httputil.RespondJSON(w, http.StatusOK, doc.Root)
}
