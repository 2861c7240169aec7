package onboarding

import (
	"reflect"
	"testing"

	"gottadoit/internal/dbops"
	models "gottadoit/internal/domain/models/onboarding"
)

func testRegistry(t *testing.T) *dbops.Registry {
	t.Helper()
	registry, err := dbops.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return registry
}

func TestDispatch_Goto(t *testing.T) {
	rec := &models.UserProgressRecord{
		UserID:         "u1",
		CurrentNodeID:  "welcome-1",
		Progress:       map[string]float64{},
		CompletedNodes: []string{},
	}
	node := &models.Node{
		ID:   "welcome-1",
		Type: models.NodeTypeCard,
		Actions: []models.ActionDef{
			{ID: "next", Type: models.ActionGoto, Target: "step-2"},
		},
		Buttons: []models.ButtonDef{{Label: "Next", ActionID: "next"}},
	}

	patch, effect, outcome := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if effect != nil {
		t.Errorf("effect = %+v, want nil", effect)
	}
	if outcome != "goto" {
		t.Errorf("outcome = %q, want goto", outcome)
	}
	if patch == nil || patch.CurrentNodeID == nil || *patch.CurrentNodeID != "step-2" {
		t.Fatalf("patch = %+v, want currentNodeId step-2", patch)
	}
	// Navigation and completion travel in the same patch.
	if !reflect.DeepEqual(patch.CompletedNodes, []string{"welcome-1"}) {
		t.Errorf("completedNodes = %v, want [welcome-1]", patch.CompletedNodes)
	}

	// The input record is untouched.
	if rec.CurrentNodeID != "welcome-1" || len(rec.CompletedNodes) != 0 {
		t.Errorf("dispatch mutated input record: %+v", rec)
	}
}

func TestDispatch_GotoCompletionDedup(t *testing.T) {
	rec := &models.UserProgressRecord{
		UserID:         "u1",
		CurrentNodeID:  "step-2",
		CompletedNodes: []string{"welcome-1", "step-2"},
	}
	node := &models.Node{
		ID:      "step-2",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{{ID: "back", Type: models.ActionGoto, Target: "welcome-1"}},
		Buttons: []models.ButtonDef{{Label: "Back", ActionID: "back"}},
	}

	patch, _, _ := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if !reflect.DeepEqual(patch.CompletedNodes, []string{"welcome-1", "step-2"}) {
		t.Errorf("completedNodes = %v, want no duplicate", patch.CompletedNodes)
	}
}

func TestDispatch_Acknowledge(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "done-1"}
	node := &models.Node{
		ID:      "done-1",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{{ID: "finish", Type: models.ActionAcknowledge}},
		Buttons: []models.ButtonDef{{Label: "Finish", ActionID: "finish"}},
	}

	patch, effect, _ := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if effect != nil {
		t.Errorf("effect = %+v, want nil", effect)
	}
	if patch == nil || patch.CurrentNodeID != nil {
		t.Fatalf("patch = %+v, want completion only", patch)
	}
	if !reflect.DeepEqual(patch.CompletedNodes, []string{"done-1"}) {
		t.Errorf("completedNodes = %v, want [done-1]", patch.CompletedNodes)
	}
}

func TestDispatch_DanglingActionIsNoop(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "welcome-1"}
	node := &models.Node{
		ID:      "welcome-1",
		Type:    models.NodeTypeCard,
		Buttons: []models.ButtonDef{{Label: "Later", ActionID: "not-wired-yet"}},
	}

	patch, effect, outcome := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if patch != nil || effect != nil {
		t.Errorf("dispatch = (%+v, %+v), want no-op", patch, effect)
	}
	if outcome != outcomeNoop {
		t.Errorf("outcome = %q, want %q", outcome, outcomeNoop)
	}
}

func TestDispatch_Download(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "handbook-1"}
	node := &models.Node{
		ID:      "handbook-1",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{{ID: "dl", Type: models.ActionDownload, Target: "https://example.com/h.pdf"}},
		Buttons: []models.ButtonDef{{Label: "Download", ActionID: "dl"}},
	}

	patch, effect, _ := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if patch != nil {
		t.Errorf("patch = %+v, want nil (downloads don't move the user)", patch)
	}
	if effect == nil || effect.Type != models.EffectDownload || effect.URL != "https://example.com/h.pdf" {
		t.Errorf("effect = %+v, want download of target URL", effect)
	}
}

func TestDispatch_APIDefaultsToGet(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "n"}
	node := &models.Node{
		ID:   "n",
		Type: models.NodeTypeCard,
		Actions: []models.ActionDef{{
			ID:      "ping",
			Type:    models.ActionAPI,
			Target:  "https://example.com/ping",
			Headers: map[string]string{"X-Org": "acme"},
		}},
		Buttons: []models.ButtonDef{{Label: "Ping", ActionID: "ping"}},
	}

	_, effect, _ := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if effect == nil || effect.Type != models.EffectAPI {
		t.Fatalf("effect = %+v, want api", effect)
	}
	if effect.Method != "GET" {
		t.Errorf("method = %q, want GET default", effect.Method)
	}
	if effect.Headers["X-Org"] != "acme" {
		t.Errorf("headers = %v, want X-Org carried through", effect.Headers)
	}
}

func TestDispatch_DBRegisteredOperation(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "policies-1"}
	node := &models.Node{
		ID:      "policies-1",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{{ID: "ack", Type: models.ActionDB, Query: "record-policy-acknowledgement"}},
		Buttons: []models.ButtonDef{{Label: "Accept", ActionID: "ack"}},
	}

	patch, effect, _ := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if patch != nil {
		t.Errorf("patch = %+v, want nil", patch)
	}
	if effect == nil || effect.Type != models.EffectDB {
		t.Fatalf("effect = %+v, want db", effect)
	}
	// The forwarded statement comes from the registry, never from the node.
	if effect.Query == "record-policy-acknowledgement" || effect.Query == "" {
		t.Errorf("query = %q, want resolved statement", effect.Query)
	}
	if effect.DBType != "postgres" {
		t.Errorf("dbType = %q, want registry default", effect.DBType)
	}
}

func TestDispatch_DBUnregisteredIsNoop(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "n"}
	node := &models.Node{
		ID:      "n",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{{ID: "raw", Type: models.ActionDB, Query: "DROP TABLE users"}},
		Buttons: []models.ButtonDef{{Label: "Run", ActionID: "raw"}},
	}

	patch, effect, outcome := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if patch != nil || effect != nil || outcome != outcomeNoop {
		t.Errorf("dispatch = (%+v, %+v, %q), want inert no-op", patch, effect, outcome)
	}
}

func TestDispatch_UnknownActionTypeIsNoop(t *testing.T) {
	rec := &models.UserProgressRecord{UserID: "u1", CurrentNodeID: "n"}
	node := &models.Node{
		ID:      "n",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{{ID: "x", Type: "teleport"}},
		Buttons: []models.ButtonDef{{Label: "Go", ActionID: "x"}},
	}

	patch, effect, outcome := dispatch(rec, node, node.Buttons[0], testRegistry(t))

	if patch != nil || effect != nil || outcome != outcomeNoop {
		t.Errorf("dispatch = (%+v, %+v, %q), want no-op", patch, effect, outcome)
	}
}
