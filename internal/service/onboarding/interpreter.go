package onboarding

import (
	"net/http"

	"gottadoit/internal/dbops"
	models "gottadoit/internal/domain/models/onboarding"
)

// dispatchOutcome labels what a dispatch did, for logging and metrics.
type dispatchOutcome string

const (
	outcomeNoop dispatchOutcome = "noop"
)

// dispatch resolves a button against its node's action list and computes the
// resulting state patch and external effect. It is pure: it never touches
// storage and never mutates rec.
//
// A button whose actionId matches no action is a deliberate no-op (nil patch,
// nil effect), not an error: authors wire buttons before actions exist and
// the UI must stay inert rather than break. db actions must name an
// operation in the registry; an unregistered name is likewise inert.
func dispatch(rec *models.UserProgressRecord, node *models.Node, button models.ButtonDef, registry *dbops.Registry) (*models.ProgressPatch, *models.Effect, dispatchOutcome) {
	action := node.FindAction(button.ActionID)
	if action == nil {
		return nil, nil, outcomeNoop
	}

	switch action.Type {
	case models.ActionGoto:
		// Navigation and completion are one patch: applying them as two
		// writes would let a concurrent reader observe a torn record.
		target := action.Target
		return &models.ProgressPatch{
			CurrentNodeID:  &target,
			CompletedNodes: models.WithCompleted(rec.CompletedNodes, rec.CurrentNodeID),
		}, nil, dispatchOutcome(action.Type)

	case models.ActionAcknowledge:
		return &models.ProgressPatch{
			CompletedNodes: models.WithCompleted(rec.CompletedNodes, rec.CurrentNodeID),
		}, nil, dispatchOutcome(action.Type)

	case models.ActionDownload:
		return nil, &models.Effect{
			Type: models.EffectDownload,
			URL:  action.Target,
		}, dispatchOutcome(action.Type)

	case models.ActionAPI:
		method := action.Method
		if method == "" {
			method = http.MethodGet
		}
		return nil, &models.Effect{
			Type:    models.EffectAPI,
			URL:     action.Target,
			Method:  method,
			Headers: action.Headers,
		}, dispatchOutcome(action.Type)

	case models.ActionDB:
		op, ok := registry.Resolve(action.Query)
		if !ok {
			// Unregistered operation: the action stays inert rather than
			// forwarding author-supplied text to the proxy.
			return nil, nil, outcomeNoop
		}
		dbType := action.DBType
		if dbType == "" {
			dbType = op.DBType
		}
		return nil, &models.Effect{
			Type:   models.EffectDB,
			DBType: dbType,
			Query:  op.Statement,
		}, dispatchOutcome(action.Type)
	}

	// Unknown action types cannot be authored (publish validates the closed
	// set), but a hand-edited document must not crash the interpreter.
	return nil, nil, outcomeNoop
}
