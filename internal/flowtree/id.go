package flowtree

import (
	"fmt"

	"github.com/google/uuid"
)

// NewNodeID derives an id for a node created under parentID. The suffix is
// random rather than a wall-clock timestamp so rapid sequential creation
// cannot collide, and the result is checked against the tree's index anyway.
func (t *Tree) NewNodeID(parentID string) string {
	for {
		id := fmt.Sprintf("%s-child-%s", parentID, shortSuffix())
		if _, ok := t.index[id]; !ok {
			return id
		}
	}
}

// NewCardID derives an id for the default card created under a new flow
// node, before that node is inserted into any tree.
func NewCardID(parentID string) string {
	return fmt.Sprintf("%s-card-%s", parentID, shortSuffix())
}

func shortSuffix() string {
	return uuid.NewString()[:8]
}
