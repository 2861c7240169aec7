package onboarding

// UserProgressRecord is one user's position in an organization's flow:
// a pointer to the current node plus the set of nodes already passed
// through. CompletedNodes has set semantics even though it is stored as
// an ordered array; Progress is an advisory per-node percentage map that
// core transitions never read.
type UserProgressRecord struct {
	UserID         string             `json:"userId"`
	CurrentNodeID  string             `json:"currentNodeId"`
	Progress       map[string]float64 `json:"progress"`
	CompletedNodes []string           `json:"completedNodes"`
}

// NewUserProgressRecord returns the default record for a user who has
// never been seen: positioned at the entry node with nothing completed.
func NewUserProgressRecord(userID, entryNodeID string) *UserProgressRecord {
	return &UserProgressRecord{
		UserID:         userID,
		CurrentNodeID:  entryNodeID,
		Progress:       map[string]float64{},
		CompletedNodes: []string{},
	}
}

// Clone returns a deep copy sharing no mutable state with r.
func (r *UserProgressRecord) Clone() *UserProgressRecord {
	if r == nil {
		return nil
	}
	out := &UserProgressRecord{
		UserID:         r.UserID,
		CurrentNodeID:  r.CurrentNodeID,
		Progress:       make(map[string]float64, len(r.Progress)),
		CompletedNodes: make([]string, len(r.CompletedNodes)),
	}
	for k, v := range r.Progress {
		out.Progress[k] = v
	}
	copy(out.CompletedNodes, r.CompletedNodes)
	return out
}

// WithCompleted returns the completion set with nodeID appended, suppressing
// duplicates. The input slice is not modified.
func WithCompleted(completed []string, nodeID string) []string {
	for _, id := range completed {
		if id == nodeID {
			out := make([]string, len(completed))
			copy(out, completed)
			return out
		}
	}
	out := make([]string, 0, len(completed)+1)
	out = append(out, completed...)
	return append(out, nodeID)
}

// ProgressPatch is a partial update to a UserProgressRecord. Nil fields are
// left unchanged; CompletedNodes and Progress are full replacements computed
// by the caller, not diffs.
type ProgressPatch struct {
	CurrentNodeID  *string            `json:"currentNodeId,omitempty"`
	Progress       map[string]float64 `json:"progress,omitempty"`
	CompletedNodes []string           `json:"completedNodes,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p *ProgressPatch) IsZero() bool {
	return p == nil || (p.CurrentNodeID == nil && p.Progress == nil && p.CompletedNodes == nil)
}

// Apply merges the patch into r, shallow field replacement per field.
func (r *UserProgressRecord) Apply(p *ProgressPatch) {
	if p == nil {
		return
	}
	if p.CurrentNodeID != nil {
		r.CurrentNodeID = *p.CurrentNodeID
	}
	if p.Progress != nil {
		r.Progress = p.Progress
	}
	if p.CompletedNodes != nil {
		r.CompletedNodes = dedup(p.CompletedNodes)
	}
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
