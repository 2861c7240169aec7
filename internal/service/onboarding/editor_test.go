package onboarding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gottadoit/internal/domain"
	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/flowtree"
)

func newTestFlowService(t *testing.T, flows *fakeFlowRepo) services.FlowService {
	t.Helper()
	return NewFlowService(flows, discardLogger())
}

func seededFlowRepo() *fakeFlowRepo {
	return &fakeFlowRepo{docs: map[string]*models.FlowDocument{"acme": testFlowDoc()}}
}

func TestGetFlow_Absent(t *testing.T) {
	svc := newTestFlowService(t, &fakeFlowRepo{})

	_, err := svc.GetFlow(context.Background(), "acme")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPublishFlow(t *testing.T) {
	flows := &fakeFlowRepo{}
	svc := newTestFlowService(t, flows)
	ctx := context.Background()

	doc, err := svc.PublishFlow(ctx, "acme", testFlowDoc().Root, nil)
	if err != nil {
		t.Fatalf("PublishFlow: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("version = %d, want 1", doc.Version)
	}

	// Republishing replaces wholesale and bumps the version.
	doc, err = svc.PublishFlow(ctx, "acme", testFlowDoc().Root, nil)
	if err != nil {
		t.Fatalf("PublishFlow second: %v", err)
	}
	if doc.Version != 2 {
		t.Errorf("version = %d, want 2", doc.Version)
	}
}

func TestPublishFlow_RejectsInvalidTree(t *testing.T) {
	svc := newTestFlowService(t, &fakeFlowRepo{})
	ctx := context.Background()

	tests := []struct {
		name string
		root *models.Node
	}{
		{"nil root", nil},
		{"duplicate ids", &models.Node{
			ID: "root", Type: models.NodeTypeFlow,
			Children: []*models.Node{
				{ID: "a", Type: models.NodeTypeCard},
				{ID: "a", Type: models.NodeTypeCard},
			},
		}},
		{"unknown node type", &models.Node{ID: "root", Type: "group"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PublishFlow(ctx, "acme", tt.root, nil)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestPublishFlow_StaleBaseVersion(t *testing.T) {
	flows := &fakeFlowRepo{}
	svc := newTestFlowService(t, flows)
	ctx := context.Background()

	if _, err := svc.PublishFlow(ctx, "acme", testFlowDoc().Root, nil); err != nil {
		t.Fatalf("PublishFlow: %v", err)
	}

	stale := int64(99)
	_, err := svc.PublishFlow(ctx, "acme", testFlowDoc().Root, &stale)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	current := int64(1)
	if _, err := svc.PublishFlow(ctx, "acme", testFlowDoc().Root, &current); err != nil {
		t.Fatalf("publish with current base: %v", err)
	}
}

func TestBeginEdit(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())
	ctx := context.Background()

	node, parent, err := svc.BeginEdit(ctx, "acme", "welcome-1")
	if err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if node.ID != "welcome-1" || parent == nil || parent.ID != "root" {
		t.Errorf("BeginEdit = (%v, %v)", node, parent)
	}

	// The root has no parent.
	_, parent, err = svc.BeginEdit(ctx, "acme", "root")
	if err != nil || parent != nil {
		t.Errorf("BeginEdit(root) = (parent %v, err %v), want nil parent", parent, err)
	}

	if _, _, err := svc.BeginEdit(ctx, "acme", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("BeginEdit(missing) err = %v, want not found", err)
	}
}

func TestCommitNodeEdit(t *testing.T) {
	flows := seededFlowRepo()
	svc := newTestFlowService(t, flows)
	ctx := context.Background()

	edited := &models.Node{
		ID:      "welcome-1",
		Title:   "Hello",
		Type:    models.NodeTypeCard,
		Content: "updated content",
		Buttons: []models.ButtonDef{{Label: "Go", ActionID: "next"}},
		// A stale form may carry children; they must not replace the
		// stored structure.
		Children: []*models.Node{{ID: "sneaky", Type: models.NodeTypeCard}},
	}

	doc, err := svc.CommitNodeEdit(ctx, "acme", edited)
	if err != nil {
		t.Fatalf("CommitNodeEdit: %v", err)
	}

	tree, _ := flowtree.New(doc.Root)
	got := tree.FindByID("welcome-1")
	if got.Title != "Hello" || got.Content != "updated content" {
		t.Errorf("node = %+v, want edited fields", got)
	}
	if len(got.Buttons) != 1 || got.Buttons[0].Label != "Go" {
		t.Errorf("buttons = %v, want replaced", got.Buttons)
	}
	if len(got.Children) != 0 {
		t.Errorf("children = %v, want structure untouched by edit", got.Children)
	}
	if tree.FindByID("sneaky") != nil {
		t.Error("edit payload injected a child node")
	}
}

func TestCommitNodeEdit_Validation(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())
	ctx := context.Background()

	if _, err := svc.CommitNodeEdit(ctx, "acme", &models.Node{Type: models.NodeTypeCard}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty id err = %v, want validation", err)
	}
	if _, err := svc.CommitNodeEdit(ctx, "acme", &models.Node{ID: "welcome-1", Type: "group"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad type err = %v, want validation", err)
	}
	if _, err := svc.CommitNodeEdit(ctx, "acme", &models.Node{ID: "missing", Type: models.NodeTypeCard}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing node err = %v, want not found", err)
	}
}

func TestCommitNodeEdit_ActionFieldValidation(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		actions []models.ActionDef
		buttons []models.ButtonDef
		wantErr bool
	}{
		{
			name:    "goto without target",
			actions: []models.ActionDef{{ID: "a", Type: models.ActionGoto}},
			wantErr: true,
		},
		{
			name:    "api with non-url target",
			actions: []models.ActionDef{{ID: "a", Type: models.ActionAPI, Target: "not a url"}},
			wantErr: true,
		},
		{
			name:    "db without query",
			actions: []models.ActionDef{{ID: "a", Type: models.ActionDB}},
			wantErr: true,
		},
		{
			name:    "action without id",
			actions: []models.ActionDef{{Type: models.ActionAcknowledge}},
			wantErr: true,
		},
		{
			name:    "button without label",
			buttons: []models.ButtonDef{{ActionID: "a"}},
			wantErr: true,
		},
		{
			name: "complete card",
			actions: []models.ActionDef{
				{ID: "go", Type: models.ActionGoto, Target: "step-2"},
				{ID: "dl", Type: models.ActionDownload, Target: "https://example.com/f.pdf"},
			},
			buttons: []models.ButtonDef{{Label: "Go", ActionID: "go"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CommitNodeEdit(ctx, "acme", &models.Node{
				ID:      "welcome-1",
				Type:    models.NodeTypeCard,
				Actions: tt.actions,
				Buttons: tt.buttons,
			})
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestDeleteNode(t *testing.T) {
	flows := seededFlowRepo()
	svc := newTestFlowService(t, flows)
	ctx := context.Background()

	doc, err := svc.DeleteNode(ctx, "acme", "welcome-1")
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	tree, _ := flowtree.New(doc.Root)
	if tree.FindByID("welcome-1") != nil {
		t.Error("deleted node still present")
	}
	if tree.FindByID("step-2") == nil {
		t.Error("sibling vanished with deletion")
	}
}

func TestDeleteNode_RootRejected(t *testing.T) {
	flows := seededFlowRepo()
	svc := newTestFlowService(t, flows)

	_, err := svc.DeleteNode(context.Background(), "acme", "root")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	// The stored flow is unchanged.
	if flows.docs["acme"].Version != 1 {
		t.Errorf("version = %d, want untouched 1", flows.docs["acme"].Version)
	}
}

func TestAddChild(t *testing.T) {
	flows := seededFlowRepo()
	svc := newTestFlowService(t, flows)
	ctx := context.Background()

	doc, err := svc.AddChild(ctx, "acme", "root", models.NodeTypeFlow)
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	tree, _ := flowtree.New(doc.Root)
	root := tree.Root()
	added := root.Children[len(root.Children)-1]
	if added.Type != models.NodeTypeFlow || added.Title != "New Node" {
		t.Errorf("added = %+v, want default flow node", added)
	}
	if !strings.HasPrefix(added.ID, "root-child-") {
		t.Errorf("id = %q, want parent-derived", added.ID)
	}
	// A new flow container carries one default card.
	if len(added.Children) != 1 || added.Children[0].Type != models.NodeTypeCard || added.Children[0].Title != "New Card" {
		t.Errorf("children = %+v, want one default card", added.Children)
	}
}

func TestAddChild_CardHasNoChildren(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())

	doc, err := svc.AddChild(context.Background(), "acme", "root", models.NodeTypeCard)
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	tree, _ := flowtree.New(doc.Root)
	root := tree.Root()
	added := root.Children[len(root.Children)-1]
	if len(added.Children) != 0 {
		t.Errorf("card children = %v, want none", added.Children)
	}
	if added.Actions == nil || added.Buttons == nil {
		t.Error("card should start with empty action/button lists, not nil")
	}
}

func TestAddChild_Errors(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())
	ctx := context.Background()

	if _, err := svc.AddChild(ctx, "acme", "root", "group"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad type err = %v, want validation", err)
	}
	if _, err := svc.AddChild(ctx, "acme", "missing", models.NodeTypeCard); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing parent err = %v, want not found", err)
	}
}

func TestAddSibling(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())
	ctx := context.Background()

	doc, err := svc.AddSibling(ctx, "acme", "welcome-1", models.NodeTypeCard)
	if err != nil {
		t.Fatalf("AddSibling: %v", err)
	}

	tree, _ := flowtree.New(doc.Root)
	root := tree.Root()
	if len(root.Children) != 3 {
		t.Fatalf("root has %d children, want 3", len(root.Children))
	}
	added := root.Children[2]
	if added.Type != models.NodeTypeCard {
		t.Errorf("added = %+v, want card", added)
	}
}

func TestAddSibling_RootRejected(t *testing.T) {
	svc := newTestFlowService(t, seededFlowRepo())

	_, err := svc.AddSibling(context.Background(), "acme", "root", models.NodeTypeCard)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMutationsDoNotAliasStoredTree(t *testing.T) {
	flows := seededFlowRepo()
	svc := newTestFlowService(t, flows)
	ctx := context.Background()

	before := flows.docs["acme"].Root

	if _, err := svc.DeleteNode(ctx, "acme", "step-2"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	// The previously stored snapshot is untouched; readers holding it see
	// a consistent tree.
	beforeTree, _ := flowtree.New(before)
	if beforeTree.FindByID("step-2") == nil {
		t.Error("mutation modified the prior snapshot in place")
	}
}
