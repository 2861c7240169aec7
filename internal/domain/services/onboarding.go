package services

import (
	"context"

	"gottadoit/internal/domain/models/onboarding"
)

// FlowService is the authoring surface over an organization's flow tree.
// Every mutation is clone-mutate-replace: the stored snapshot is never
// modified in place, and the new tree is validated before publish.
type FlowService interface {
	// GetFlow returns the organization's flow document.
	// Returns domain.ErrNotFound if none has been published.
	GetFlow(ctx context.Context, orgID string) (*onboarding.FlowDocument, error)

	// PublishFlow validates and stores root wholesale. baseVersion, when
	// non-nil, rejects a publish whose base is stale with a conflict.
	PublishFlow(ctx context.Context, orgID string, root *onboarding.Node, baseVersion *int64) (*onboarding.FlowDocument, error)

	// BeginEdit surfaces a node and its parent for editing; the parent is
	// nil for the root. Returns domain.ErrNotFound for an unknown id.
	BeginEdit(ctx context.Context, orgID, nodeID string) (node, parent *onboarding.Node, err error)

	// CommitNodeEdit replaces the fields of the node with edited.ID.
	// The id itself is immutable across this operation.
	CommitNodeEdit(ctx context.Context, orgID string, edited *onboarding.Node) (*onboarding.FlowDocument, error)

	// DeleteNode removes the subtree rooted at nodeID. The root is rejected.
	DeleteNode(ctx context.Context, orgID, nodeID string) (*onboarding.FlowDocument, error)

	// AddChild appends a synthesized node of the given type under parentID.
	// A new flow node carries one default card child.
	AddChild(ctx context.Context, orgID, parentID string, nodeType onboarding.NodeType) (*onboarding.FlowDocument, error)

	// AddSibling is AddChild targeting the reference node's parent;
	// rejected when the reference node is the root.
	AddSibling(ctx context.Context, orgID, referenceNodeID string, nodeType onboarding.NodeType) (*onboarding.FlowDocument, error)
}

// DispatchResult is the outcome of dispatching a button press.
type DispatchResult struct {
	// State is the progress record after the dispatch. For a no-op
	// (dangling action reference) it is the unchanged record.
	State *onboarding.UserProgressRecord `json:"state"`
	// Effect is the external side effect for the caller to surface, if any.
	Effect *onboarding.Effect `json:"effect,omitempty"`
}

// StateService is the runtime surface over per-user onboarding progress.
type StateService interface {
	// GetState returns the stored record, or nil if never initialized.
	GetState(ctx context.Context, orgID, userID string) (*onboarding.UserProgressRecord, error)

	// GetOrCreateState returns the stored record, synthesizing and
	// persisting the default record on first access.
	GetOrCreateState(ctx context.Context, orgID, userID string) (*onboarding.UserProgressRecord, error)

	// ApplyPartial merges a partial update into the record atomically for
	// the (org, user) key and returns the merged record.
	ApplyPartial(ctx context.Context, orgID, userID string, patch *onboarding.ProgressPatch) (*onboarding.UserProgressRecord, error)

	// ResolveCurrentNode returns the node the record points at.
	// A stale pointer yields domain.ErrNotFound, never a silent fallback
	// to the root.
	ResolveCurrentNode(ctx context.Context, orgID, userID string) (*onboarding.Node, error)

	// DispatchButton resolves the given button on the user's current node
	// and executes its action: state transitions are applied as one atomic
	// patch, external effects run best-effort. An unresolved action
	// reference is a deliberate no-op.
	DispatchButton(ctx context.Context, orgID, userID string, buttonIndex int) (*DispatchResult, error)
}

// EffectRunner executes the server-side outbound effects of a dispatch
// (api calls and db-proxy forwards). Implementations are fire-and-forget:
// failures are logged and swallowed, never returned.
type EffectRunner interface {
	Run(ctx context.Context, effect *onboarding.Effect)
}
