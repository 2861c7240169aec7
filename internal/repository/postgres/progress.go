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

// PostgresProgressRepository stores one progress record per (org, user) as a
// JSONB column uniquely keyed by the composite pair.
type PostgresProgressRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProgressRepository creates a new PostgresProgressRepository
func NewProgressRepository(config *RepositoryConfig) repositories.ProgressRepository {
	return &PostgresProgressRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Get retrieves the record for a (org, user) pair.
// Returns nil if the user has never been initialized (a valid absence).
func (r *PostgresProgressRepository) Get(ctx context.Context, orgID, userID string) (*onboarding.UserProgressRecord, error) {
	return r.get(ctx, orgID, userID, false)
}

// GetForUpdate is Get with a row lock, for use inside a transaction.
func (r *PostgresProgressRepository) GetForUpdate(ctx context.Context, orgID, userID string) (*onboarding.UserProgressRecord, error) {
	return r.get(ctx, orgID, userID, true)
}

func (r *PostgresProgressRepository) get(ctx context.Context, orgID, userID string, forUpdate bool) (*onboarding.UserProgressRecord, error) {
	lock := ""
	if forUpdate {
		lock = "FOR UPDATE"
	}
	query := fmt.Sprintf(`
		SELECT state
		FROM %s
		WHERE org_id = $1 AND user_id = $2
		%s
	`, r.tables.UserStates, lock)

	var data []byte
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, orgID, userID).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &domain.StoreUnavailableError{Op: "get user state", Err: err}
	}

	var rec onboarding.UserProgressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user state: %w", err)
	}
	// Older rows may predate the userId field inside the document.
	if rec.UserID == "" {
		rec.UserID = userID
	}

	return &rec, nil
}

// Upsert creates or replaces the record for a (org, user) pair.
func (r *PostgresProgressRepository) Upsert(ctx context.Context, orgID string, rec *onboarding.UserProgressRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode user state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (org_id, user_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`, r.tables.UserStates)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, orgID, rec.UserID, data, time.Now()); err != nil {
		return &domain.StoreUnavailableError{Op: "save user state", Err: err}
	}

	return nil
}
