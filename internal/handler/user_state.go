package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"gottadoit/internal/domain"
	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/httputil"
)

// UserStateHandler handles onboarding user state HTTP requests
type UserStateHandler struct {
	stateService services.StateService
	logger       *slog.Logger
}

// NewUserStateHandler creates a new user state handler
func NewUserStateHandler(stateService services.StateService, logger *slog.Logger) *UserStateHandler {
	return &UserStateHandler{
		stateService: stateService,
		logger:       logger,
	}
}

// DispatchRequest selects a button on the user's current node by index.
type DispatchRequest struct {
	ButtonIndex int `json:"buttonIndex"`
}

// GetState retrieves the user's progress record. A user that was never
// initialized yields a JSON null body, not a 404: absence is a normal state
// the client handles by rendering the entry step.
// GET /api/orgs/{orgID}/onboarding-user-state/{userID}
func (h *UserStateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := stateParams(w, r)
	if !ok {
		return
	}

	rec, err := h.stateService.GetState(r.Context(), orgID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rec)
}

// UpdateState merges a partial update into the user's record
// POST /api/orgs/{orgID}/onboarding-user-state/{userID}
func (h *UserStateHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := stateParams(w, r)
	if !ok {
		return
	}

	var patch models.ProgressPatch
	if err := httputil.ParseJSON(w, r, &patch); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.stateService.ApplyPartial(r.Context(), orgID, userID, &patch)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rec)
}

// GetCurrentNode resolves the node the user's record points at. A stale
// pointer yields a 404 carrying a "reason" marker so clients can distinguish
// a lost place from an unknown route.
// GET /api/orgs/{orgID}/onboarding-user-state/{userID}/current-node
func (h *UserStateHandler) GetCurrentNode(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := stateParams(w, r)
	if !ok {
		return
	}

	node, err := h.stateService.ResolveCurrentNode(r.Context(), orgID, userID)
	if err != nil {
		var stepErr *domain.StepNotFoundError
		if errors.As(err, &stepErr) {
			httputil.RespondErrorWithExtras(w, http.StatusNotFound, stepErr.Error(), map[string]interface{}{
				"reason": "current-step-not-found",
				"nodeId": stepErr.NodeID,
			})
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Dispatch executes a button press on the user's current node
// POST /api/orgs/{orgID}/onboarding-user-state/{userID}/dispatch
func (h *UserStateHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := stateParams(w, r)
	if !ok {
		return
	}

	var req DispatchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.stateService.DispatchButton(r.Context(), orgID, userID, req.ButtonIndex)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

func stateParams(w http.ResponseWriter, r *http.Request) (orgID, userID string, ok bool) {
	orgID = r.PathValue("orgID")
	userID = r.PathValue("userID")
	if orgID == "" || userID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Organization ID and user ID are required")
		return "", "", false
	}
	return orgID, userID, true
}
