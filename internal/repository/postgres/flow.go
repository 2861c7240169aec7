package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gottadoit/internal/domain"
	"gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/repositories"
)

// PostgresFlowRepository stores one flow document per organization as a
// JSONB column plus a version counter.
type PostgresFlowRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFlowRepository creates a new PostgresFlowRepository
func NewFlowRepository(config *RepositoryConfig) repositories.FlowRepository {
	return &PostgresFlowRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetFlow retrieves the flow document for an organization.
// Returns nil if the organization has no flow yet.
func (r *PostgresFlowRepository) GetFlow(ctx context.Context, orgID string) (*onboarding.FlowDocument, error) {
	query := fmt.Sprintf(`
		SELECT org_id, flow, version, created_at, updated_at
		FROM %s
		WHERE org_id = $1
	`, r.tables.Flows)

	var (
		doc  onboarding.FlowDocument
		data []byte
	)
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, orgID).Scan(
		&doc.OrgID,
		&data,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &domain.StoreUnavailableError{Op: "get flow", Err: err}
	}

	if err := json.Unmarshal(data, &doc.Root); err != nil {
		return nil, fmt.Errorf("decode flow document: %w", err)
	}

	return &doc, nil
}

// SaveFlow stores the document wholesale. With a nil baseVersion the write is
// last-writer-wins; with a non-nil baseVersion it is rejected as a conflict
// when the stored version no longer matches.
func (r *PostgresFlowRepository) SaveFlow(ctx context.Context, doc *onboarding.FlowDocument, baseVersion *int64) error {
	data, err := json.Marshal(doc.Root)
	if err != nil {
		return fmt.Errorf("encode flow document: %w", err)
	}

	now := time.Now()
	executor := GetExecutor(ctx, r.pool)

	if baseVersion != nil {
		query := fmt.Sprintf(`
			UPDATE %s
			SET flow = $2, version = version + 1, updated_at = $3
			WHERE org_id = $1 AND version = $4
			RETURNING version, created_at, updated_at
		`, r.tables.Flows)

		err := executor.QueryRow(ctx, query, doc.OrgID, data, now, *baseVersion).Scan(
			&doc.Version,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err == pgx.ErrNoRows {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("flow for org %q changed since version %d", doc.OrgID, *baseVersion),
				ResourceType: "flow",
				ResourceID:   doc.OrgID,
			}
		}
		if err != nil {
			return &domain.StoreUnavailableError{Op: "save flow", Err: err}
		}
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (org_id, flow, version, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $3)
		ON CONFLICT (org_id) DO UPDATE SET
			flow = EXCLUDED.flow,
			version = %[1]s.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING version, created_at, updated_at
	`, r.tables.Flows)

	err = executor.QueryRow(ctx, query, doc.OrgID, data, now).Scan(
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return &domain.StoreUnavailableError{Op: "save flow", Err: err}
	}

	return nil
}
