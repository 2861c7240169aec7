package onboarding

import (
	"fmt"

	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/flowtree"

	"github.com/google/uuid"
)

// Draft is the in-editor working copy of a single node. Action and button
// authoring happens on the draft; nothing touches the stored tree until the
// draft is passed to CommitNodeEdit.
type Draft struct {
	node *models.Node
}

// NewDraft starts a draft from a deep copy of n.
func NewDraft(n *models.Node) *Draft {
	return &Draft{node: flowtree.CloneNode(n)}
}

// Node returns the draft node, ready for CommitNodeEdit.
func (d *Draft) Node() *models.Node { return d.node }

// AddAction appends a new goto action with a generated id and returns it.
func (d *Draft) AddAction() models.ActionDef {
	action := models.ActionDef{
		ID:   d.newActionID(),
		Type: models.ActionGoto,
	}
	d.node.Actions = append(d.node.Actions, action)
	return action
}

// RemoveAction deletes the action with the given id. Buttons referencing it
// are left dangling on purpose; dangling references are inert at runtime.
func (d *Draft) RemoveAction(actionID string) bool {
	for i := range d.node.Actions {
		if d.node.Actions[i].ID == actionID {
			d.node.Actions = append(d.node.Actions[:i], d.node.Actions[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateActionField sets a single field on the action with the given id.
// Field names match the document keys. Renaming an action to an id already
// used on this node is rejected.
func (d *Draft) UpdateActionField(actionID, field, value string) error {
	action := d.node.FindAction(actionID)
	if action == nil {
		return fmt.Errorf("action %q not found", actionID)
	}

	switch field {
	case "id":
		if value == "" {
			return fmt.Errorf("action id cannot be empty")
		}
		if other := d.node.FindAction(value); other != nil && other != action {
			return fmt.Errorf("action id %q already in use", value)
		}
		action.ID = value
	case "type":
		if !models.IsValidActionType(models.ActionType(value)) {
			return fmt.Errorf("unknown action type %q", value)
		}
		action.Type = models.ActionType(value)
	case "target":
		action.Target = value
	case "method":
		action.Method = value
	case "dbType":
		action.DBType = value
	case "query":
		action.Query = value
	default:
		return fmt.Errorf("unknown action field %q", field)
	}
	return nil
}

// SetActionHeader sets one header on an api action.
func (d *Draft) SetActionHeader(actionID, key, value string) error {
	action := d.node.FindAction(actionID)
	if action == nil {
		return fmt.Errorf("action %q not found", actionID)
	}
	if action.Headers == nil {
		action.Headers = map[string]string{}
	}
	action.Headers[key] = value
	return nil
}

// AddButton appends a new button. It is bound to the node's first action
// when one exists, otherwise left unbound.
func (d *Draft) AddButton(label string) models.ButtonDef {
	button := models.ButtonDef{Label: label}
	if len(d.node.Actions) > 0 {
		button.ActionID = d.node.Actions[0].ID
	}
	d.node.Buttons = append(d.node.Buttons, button)
	return button
}

// RemoveButton deletes the button at index.
func (d *Draft) RemoveButton(index int) bool {
	if index < 0 || index >= len(d.node.Buttons) {
		return false
	}
	d.node.Buttons = append(d.node.Buttons[:index], d.node.Buttons[index+1:]...)
	return true
}

// UpdateButtonField sets a single field on the button at index. A button may
// reference an action id that does not (yet) exist; the reference simply
// stays inert until the action is authored.
func (d *Draft) UpdateButtonField(index int, field, value string) error {
	if index < 0 || index >= len(d.node.Buttons) {
		return fmt.Errorf("no button at index %d", index)
	}

	switch field {
	case "label":
		d.node.Buttons[index].Label = value
	case "actionId":
		d.node.Buttons[index].ActionID = value
	default:
		return fmt.Errorf("unknown button field %q", field)
	}
	return nil
}

func (d *Draft) newActionID() string {
	for {
		id := "action-" + uuid.NewString()[:8]
		if d.node.FindAction(id) == nil {
			return id
		}
	}
}
