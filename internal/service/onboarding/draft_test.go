package onboarding

import (
	"strings"
	"testing"

	models "gottadoit/internal/domain/models/onboarding"
)

func draftNode() *models.Node {
	return &models.Node{
		ID:   "welcome-1",
		Type: models.NodeTypeCard,
		Actions: []models.ActionDef{
			{ID: "next", Type: models.ActionGoto, Target: "step-2"},
		},
		Buttons: []models.ButtonDef{
			{Label: "Next", ActionID: "next"},
		},
	}
}

func TestDraft_IsolatedFromSource(t *testing.T) {
	src := draftNode()
	draft := NewDraft(src)

	draft.AddAction()
	draft.AddButton("Extra")
	if err := draft.UpdateActionField("next", "target", "elsewhere"); err != nil {
		t.Fatalf("UpdateActionField: %v", err)
	}

	if len(src.Actions) != 1 || len(src.Buttons) != 1 {
		t.Errorf("draft edits leaked into source node: %+v", src)
	}
	if src.Actions[0].Target != "step-2" {
		t.Errorf("source target = %q, want untouched", src.Actions[0].Target)
	}
}

func TestDraft_AddAction(t *testing.T) {
	draft := NewDraft(draftNode())

	added := draft.AddAction()
	if added.Type != models.ActionGoto {
		t.Errorf("type = %q, want goto default", added.Type)
	}
	if !strings.HasPrefix(added.ID, "action-") {
		t.Errorf("id = %q, want generated action- id", added.ID)
	}
	if draft.Node().FindAction(added.ID) == nil {
		t.Error("added action not on draft node")
	}
}

func TestDraft_RemoveAction_LeavesButtonsDangling(t *testing.T) {
	draft := NewDraft(draftNode())

	if !draft.RemoveAction("next") {
		t.Fatal("RemoveAction(next) = false")
	}
	if draft.RemoveAction("next") {
		t.Error("RemoveAction twice = true")
	}

	// The button keeps its reference; a dangling reference is inert at
	// runtime, not an error.
	if got := draft.Node().Buttons[0].ActionID; got != "next" {
		t.Errorf("button actionId = %q, want dangling reference kept", got)
	}
}

func TestDraft_UpdateActionField(t *testing.T) {
	draft := NewDraft(draftNode())

	tests := []struct {
		field   string
		value   string
		wantErr bool
	}{
		{"target", "step-3", false},
		{"type", "download", false},
		{"type", "teleport", true},
		{"method", "POST", false},
		{"dbType", "postgres", false},
		{"query", "record-policy-acknowledgement", false},
		{"id", "", true},
		{"id", "renamed", false},
		{"color", "red", true},
	}

	id := "next"
	for _, tt := range tests {
		err := draft.UpdateActionField(id, tt.field, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("UpdateActionField(%q, %q) err = %v, wantErr %v", tt.field, tt.value, err, tt.wantErr)
		}
		if tt.field == "id" && err == nil {
			id = tt.value
		}
	}

	action := draft.Node().FindAction("renamed")
	if action == nil {
		t.Fatal("renamed action not found")
	}
	if action.Target != "step-3" || action.Method != "POST" {
		t.Errorf("action = %+v, want updated fields", action)
	}
}

func TestDraft_UpdateActionField_RejectsIDCollision(t *testing.T) {
	draft := NewDraft(draftNode())
	added := draft.AddAction()

	if err := draft.UpdateActionField(added.ID, "id", "next"); err == nil {
		t.Fatal("expected collision error renaming to existing action id")
	}
}

func TestDraft_SetActionHeader(t *testing.T) {
	draft := NewDraft(draftNode())

	if err := draft.SetActionHeader("next", "X-Org", "acme"); err != nil {
		t.Fatalf("SetActionHeader: %v", err)
	}
	if got := draft.Node().FindAction("next").Headers["X-Org"]; got != "acme" {
		t.Errorf("header = %q, want acme", got)
	}

	if err := draft.SetActionHeader("missing", "K", "v"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestDraft_AddButton(t *testing.T) {
	draft := NewDraft(draftNode())

	added := draft.AddButton("Continue")
	if added.ActionID != "next" {
		t.Errorf("actionId = %q, want bound to first action", added.ActionID)
	}

	// Without actions the button starts unbound.
	empty := NewDraft(&models.Node{ID: "n", Type: models.NodeTypeCard})
	if added := empty.AddButton("Orphan"); added.ActionID != "" {
		t.Errorf("actionId = %q, want unbound", added.ActionID)
	}
}

func TestDraft_RemoveButton(t *testing.T) {
	draft := NewDraft(draftNode())

	if draft.RemoveButton(5) || draft.RemoveButton(-1) {
		t.Error("RemoveButton out of range = true")
	}
	if !draft.RemoveButton(0) {
		t.Fatal("RemoveButton(0) = false")
	}
	if len(draft.Node().Buttons) != 0 {
		t.Errorf("buttons = %v, want empty", draft.Node().Buttons)
	}
}

func TestDraft_UpdateButtonField(t *testing.T) {
	draft := NewDraft(draftNode())

	if err := draft.UpdateButtonField(0, "label", "Onwards"); err != nil {
		t.Fatalf("UpdateButtonField: %v", err)
	}
	// Binding to a not-yet-authored action is allowed.
	if err := draft.UpdateButtonField(0, "actionId", "future-action"); err != nil {
		t.Fatalf("UpdateButtonField actionId: %v", err)
	}

	button := draft.Node().Buttons[0]
	if button.Label != "Onwards" || button.ActionID != "future-action" {
		t.Errorf("button = %+v, want updated", button)
	}

	if err := draft.UpdateButtonField(0, "icon", "x"); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := draft.UpdateButtonField(9, "label", "x"); err == nil {
		t.Error("expected error for out-of-range index")
	}
}
