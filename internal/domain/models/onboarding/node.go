package onboarding

import "encoding/json"

// NodeType distinguishes container nodes from interactive cards.
type NodeType string

const (
	// NodeTypeFlow is a pure container node grouping child nodes.
	NodeTypeFlow NodeType = "flow"
	// NodeTypeCard is the terminal interactive unit carrying content,
	// actions, and buttons.
	NodeTypeCard NodeType = "card"
)

// ActionType is the closed set of declarative operations a card can expose.
type ActionType string

const (
	ActionGoto        ActionType = "goto"
	ActionAcknowledge ActionType = "acknowledge"
	ActionDownload    ActionType = "download"
	ActionAPI         ActionType = "api"
	ActionDB          ActionType = "db"
)

// KnownNodeTypes lists every valid NodeType.
var KnownNodeTypes = []NodeType{NodeTypeFlow, NodeTypeCard}

// KnownActionTypes lists every valid ActionType.
var KnownActionTypes = []ActionType{
	ActionGoto, ActionAcknowledge, ActionDownload, ActionAPI, ActionDB,
}

// ActionDef is a declarative, named operation on a card node.
// Which of the optional fields are meaningful depends on Type:
// goto uses Target (node id), download/api use Target (URL), api additionally
// uses Method and Headers, db uses DBType and Query.
type ActionDef struct {
	ID      string            `json:"id"`
	Type    ActionType        `json:"type"`
	Target  string            `json:"target,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	DBType  string            `json:"dbType,omitempty"`
	Query   string            `json:"query,omitempty"`
}

// ButtonDef binds a display label to at most one action by reference.
// ActionID may be empty or dangling; the interpreter treats that as inert.
type ButtonDef struct {
	Label    string `json:"label"`
	ActionID string `json:"actionId,omitempty"`
}

// Node is one element of an onboarding flow tree. The JSON shape is the
// persisted document format, so field names match the stored documents.
type Node struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Type     NodeType        `json:"type"`
	Children []*Node         `json:"children,omitempty"`
	Content  string          `json:"content,omitempty"`
	Actions  []ActionDef     `json:"actions,omitempty"`
	Buttons  []ButtonDef     `json:"buttons,omitempty"`
	// Static is an opaque auxiliary payload displayed verbatim, never
	// interpreted by the engine.
	Static json.RawMessage `json:"static,omitempty"`
}

// FindAction returns the action with the given id on this node, or nil.
func (n *Node) FindAction(actionID string) *ActionDef {
	if actionID == "" {
		return nil
	}
	for i := range n.Actions {
		if n.Actions[i].ID == actionID {
			return &n.Actions[i]
		}
	}
	return nil
}

// IsValidNodeType reports whether t is one of the known node types.
func IsValidNodeType(t NodeType) bool {
	for _, k := range KnownNodeTypes {
		if t == k {
			return true
		}
	}
	return false
}

// IsValidActionType reports whether t is one of the known action types.
func IsValidActionType(t ActionType) bool {
	for _, k := range KnownActionTypes {
		if t == k {
			return true
		}
	}
	return false
}
