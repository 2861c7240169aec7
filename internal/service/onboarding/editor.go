package onboarding

import (
	"context"
	"fmt"
	"log/slog"

	"gottadoit/internal/domain"
	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/repositories"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/flowtree"
)

// flowService implements the FlowService interface. Every mutation follows
// clone-mutate-replace: the stored tree is re-indexed, deep-cloned, mutated,
// validated, and only then published, so a failed edit leaves no partial
// state and in-flight readers keep a consistent snapshot.
type flowService struct {
	flowRepo repositories.FlowRepository
	logger   *slog.Logger
}

// NewFlowService creates a new flow authoring service.
func NewFlowService(flowRepo repositories.FlowRepository, logger *slog.Logger) services.FlowService {
	return &flowService{
		flowRepo: flowRepo,
		logger:   logger,
	}
}

// GetFlow returns the organization's flow document.
func (s *flowService) GetFlow(ctx context.Context, orgID string) (*models.FlowDocument, error) {
	doc, err := s.flowRepo.GetFlow(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("no onboarding flow published for org %q", orgID),
		}
	}
	return doc, nil
}

// PublishFlow validates root and stores it wholesale, replacing any prior
// version. Publishing is last-writer-wins at document granularity unless the
// caller supplies its base version, in which case a stale base is a conflict.
func (s *flowService) PublishFlow(ctx context.Context, orgID string, root *models.Node, baseVersion *int64) (*models.FlowDocument, error) {
	tree, err := flowtree.New(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc := &models.FlowDocument{OrgID: orgID, Root: root}
	if err := s.flowRepo.SaveFlow(ctx, doc, baseVersion); err != nil {
		return nil, err
	}

	s.logger.Info("flow published",
		"org_id", orgID,
		"version", doc.Version,
		"root", root.ID,
	)

	return doc, nil
}

// BeginEdit surfaces the node and its parent for an editing session.
func (s *flowService) BeginEdit(ctx context.Context, orgID, nodeID string) (*models.Node, *models.Node, error) {
	doc, err := s.GetFlow(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	tree, err := flowtree.New(doc.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("index flow: %w", err)
	}

	node := tree.FindByID(nodeID)
	if node == nil {
		return nil, nil, &domain.NotFoundError{
			Message: fmt.Sprintf("node %q not found", nodeID),
		}
	}

	return node, tree.Parent(nodeID), nil
}

// CommitNodeEdit replaces the editable fields of the node carrying
// edited.ID. The id is immutable across this operation, and children are
// managed exclusively through AddChild/AddSibling/DeleteNode so a stale
// editor form cannot orphan a subtree.
func (s *flowService) CommitNodeEdit(ctx context.Context, orgID string, edited *models.Node) (*models.FlowDocument, error) {
	if edited == nil || edited.ID == "" {
		return nil, &domain.ValidationError{Message: "edited node id is required"}
	}
	if !models.IsValidNodeType(edited.Type) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown node type %q", edited.Type),
		}
	}
	if err := validateEditedNode(edited); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	return s.mutate(ctx, orgID, func(tree *flowtree.Tree) error {
		found := tree.UpdateByID(edited.ID, func(n, _ *models.Node) {
			n.Title = edited.Title
			n.Type = edited.Type
			n.Content = edited.Content
			n.Actions = edited.Actions
			n.Buttons = edited.Buttons
			n.Static = edited.Static
		})
		if !found {
			return &domain.NotFoundError{
				Message: fmt.Sprintf("node %q not found", edited.ID),
			}
		}
		return nil
	})
}

// DeleteNode removes the subtree rooted at nodeID. The root is rejected.
func (s *flowService) DeleteNode(ctx context.Context, orgID, nodeID string) (*models.FlowDocument, error) {
	return s.mutate(ctx, orgID, func(tree *flowtree.Tree) error {
		if nodeID == tree.Root().ID {
			return &domain.ValidationError{Message: "the root node cannot be deleted"}
		}
		if !tree.RemoveByID(nodeID) {
			return &domain.NotFoundError{
				Message: fmt.Sprintf("node %q not found", nodeID),
			}
		}
		return nil
	})
}

// AddChild appends a synthesized node of the given type under parentID.
func (s *flowService) AddChild(ctx context.Context, orgID, parentID string, nodeType models.NodeType) (*models.FlowDocument, error) {
	if !models.IsValidNodeType(nodeType) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown node type %q", nodeType),
		}
	}

	return s.mutate(ctx, orgID, func(tree *flowtree.Tree) error {
		node := newNode(tree, parentID, nodeType)
		inserted, err := tree.InsertChild(parentID, node)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if !inserted {
			return &domain.NotFoundError{
				Message: fmt.Sprintf("parent node %q not found", parentID),
			}
		}
		return nil
	})
}

// AddSibling is AddChild targeting the reference node's parent. The root has
// no parent, so it is rejected.
func (s *flowService) AddSibling(ctx context.Context, orgID, referenceNodeID string, nodeType models.NodeType) (*models.FlowDocument, error) {
	if !models.IsValidNodeType(nodeType) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unknown node type %q", nodeType),
		}
	}

	return s.mutate(ctx, orgID, func(tree *flowtree.Tree) error {
		ref := tree.FindByID(referenceNodeID)
		if ref == nil {
			return &domain.NotFoundError{
				Message: fmt.Sprintf("node %q not found", referenceNodeID),
			}
		}
		parent := tree.Parent(referenceNodeID)
		if parent == nil {
			return &domain.ValidationError{Message: "the root node cannot have siblings"}
		}

		node := newNode(tree, parent.ID, nodeType)
		if _, err := tree.InsertChild(parent.ID, node); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return nil
	})
}

// mutate loads the current document, applies fn to a deep clone of its tree,
// validates the result, and publishes it last-writer-wins.
func (s *flowService) mutate(ctx context.Context, orgID string, fn func(tree *flowtree.Tree) error) (*models.FlowDocument, error) {
	doc, err := s.GetFlow(ctx, orgID)
	if err != nil {
		return nil, err
	}

	tree, err := flowtree.New(doc.Root)
	if err != nil {
		return nil, fmt.Errorf("index flow: %w", err)
	}

	clone := tree.Clone()
	if err := fn(clone); err != nil {
		return nil, err
	}

	return s.PublishFlow(ctx, orgID, clone.Root(), nil)
}

// newNode synthesizes a fresh node of the given type. A new flow container
// always carries one default card so the tree never contains an empty,
// non-navigable flow leaf.
func newNode(tree *flowtree.Tree, parentID string, nodeType models.NodeType) *models.Node {
	node := &models.Node{
		ID:    tree.NewNodeID(parentID),
		Title: "New Node",
		Type:  nodeType,
	}
	if nodeType == models.NodeTypeCard {
		node.Actions = []models.ActionDef{}
		node.Buttons = []models.ButtonDef{}
		return node
	}

	node.Children = []*models.Node{{
		ID:      flowtree.NewCardID(node.ID),
		Title:   "New Card",
		Type:    models.NodeTypeCard,
		Actions: []models.ActionDef{},
		Buttons: []models.ButtonDef{},
	}}
	return node
}
