package onboarding

import (
	"fmt"

	models "gottadoit/internal/domain/models/onboarding"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const maxNodeTitleLength = 255

// validateEditedNode checks the field-level shape of a node coming out of an
// editing session. Structural invariants (id uniqueness, closed type sets
// across the whole tree) are the flow tree's job; this covers what a single
// edited node must get right before it is committed.
//
// Button action references are deliberately not checked: a button may point
// at an action that does not exist yet, and stays inert until it does.
func validateEditedNode(n *models.Node) error {
	err := validation.ValidateStruct(n,
		validation.Field(&n.Title, validation.Length(0, maxNodeTitleLength)),
	)
	if err != nil {
		return err
	}

	for i := range n.Actions {
		if err := validateAction(&n.Actions[i]); err != nil {
			return fmt.Errorf("action %q: %w", n.Actions[i].ID, err)
		}
	}
	for i, b := range n.Buttons {
		if b.Label == "" {
			return fmt.Errorf("button %d: label is required", i)
		}
	}
	return nil
}

func validateAction(a *models.ActionDef) error {
	return validation.ValidateStruct(a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Type, validation.Required, validation.In(
			models.ActionGoto, models.ActionAcknowledge, models.ActionDownload,
			models.ActionAPI, models.ActionDB,
		)),
		// goto needs a node to land on; download/api need a URL.
		validation.Field(&a.Target,
			validation.Required.When(a.Type == models.ActionGoto ||
				a.Type == models.ActionDownload || a.Type == models.ActionAPI),
			validation.When(a.Type == models.ActionDownload || a.Type == models.ActionAPI, is.URL),
		),
		// db actions select a registered operation by name.
		validation.Field(&a.Query,
			validation.Required.When(a.Type == models.ActionDB),
		),
	)
}
