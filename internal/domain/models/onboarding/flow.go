package onboarding

import "time"

// FlowDocument is one organization's onboarding flow tree as persisted:
// a single JSONB document keyed by org id, replaced wholesale on publish.
// Version increases by one on every successful publish and backs the
// optional stale-publish check.
type FlowDocument struct {
	OrgID     string    `json:"orgId"`
	Root      *Node     `json:"flow"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
