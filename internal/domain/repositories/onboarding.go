package repositories

import (
	"context"

	"gottadoit/internal/domain/models/onboarding"
)

// FlowRepository persists one onboarding flow document per organization.
type FlowRepository interface {
	// GetFlow retrieves the flow document for an organization.
	// Returns nil if the organization has no flow yet (a valid absence,
	// not an error).
	GetFlow(ctx context.Context, orgID string) (*onboarding.FlowDocument, error)

	// SaveFlow stores the document wholesale, replacing any prior version.
	// When baseVersion is non-nil the write is rejected with a conflict if
	// the stored version no longer matches; when nil the write is
	// last-writer-wins. On success doc.Version holds the new version.
	SaveFlow(ctx context.Context, doc *onboarding.FlowDocument, baseVersion *int64) error
}

// ProgressRepository persists one progress record per (organization, user).
type ProgressRepository interface {
	// Get retrieves the record for a (org, user) pair.
	// Returns nil if the user has never been initialized.
	Get(ctx context.Context, orgID, userID string) (*onboarding.UserProgressRecord, error)

	// GetForUpdate is Get with a row lock; it must be called inside a
	// transaction and blocks concurrent writers to the same key.
	GetForUpdate(ctx context.Context, orgID, userID string) (*onboarding.UserProgressRecord, error)

	// Upsert creates or replaces the record for a (org, user) pair.
	Upsert(ctx context.Context, orgID string, rec *onboarding.UserProgressRecord) error
}
