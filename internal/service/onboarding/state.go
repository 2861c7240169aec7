package onboarding

import (
	"context"
	"fmt"
	"log/slog"

	"gottadoit/internal/dbops"
	"gottadoit/internal/domain"
	models "gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/repositories"
	"gottadoit/internal/domain/services"
	"gottadoit/internal/flowtree"
	"gottadoit/internal/metrics"
)

// stateService implements the StateService interface.
type stateService struct {
	flowRepo     repositories.FlowRepository
	progressRepo repositories.ProgressRepository
	txManager    repositories.TransactionManager
	effects      services.EffectRunner
	registry     *dbops.Registry
	entryNodeID  string
	logger       *slog.Logger
}

// NewStateService creates a new onboarding state service.
func NewStateService(
	flowRepo repositories.FlowRepository,
	progressRepo repositories.ProgressRepository,
	txManager repositories.TransactionManager,
	effects services.EffectRunner,
	registry *dbops.Registry,
	entryNodeID string,
	logger *slog.Logger,
) services.StateService {
	return &stateService{
		flowRepo:     flowRepo,
		progressRepo: progressRepo,
		txManager:    txManager,
		effects:      effects,
		registry:     registry,
		entryNodeID:  entryNodeID,
		logger:       logger,
	}
}

// GetState returns the stored record, or nil if the user was never seen.
// Absence is a valid outcome, not an error.
func (s *stateService) GetState(ctx context.Context, orgID, userID string) (*models.UserProgressRecord, error) {
	rec, err := s.progressRepo.Get(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return rec, nil
}

// GetOrCreateState returns the stored record, persisting the default record
// on first access so subsequent reads are stable.
func (s *stateService) GetOrCreateState(ctx context.Context, orgID, userID string) (*models.UserProgressRecord, error) {
	rec, err := s.progressRepo.Get(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	if rec != nil {
		return rec, nil
	}

	rec = models.NewUserProgressRecord(userID, s.entryNodeID)
	if err := s.progressRepo.Upsert(ctx, orgID, rec); err != nil {
		return nil, fmt.Errorf("initialize state: %w", err)
	}

	s.logger.Info("user state initialized",
		"org_id", orgID,
		"user_id", userID,
		"entry_node", s.entryNodeID,
	)

	return rec, nil
}

// ApplyPartial merges a partial update into the record in a single
// read-modify-write under a row lock, so concurrent patches for the same
// (org, user) key never lose an update.
func (s *stateService) ApplyPartial(ctx context.Context, orgID, userID string, patch *models.ProgressPatch) (*models.UserProgressRecord, error) {
	var rec *models.UserProgressRecord

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.progressRepo.GetForUpdate(txCtx, orgID, userID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = models.NewUserProgressRecord(userID, s.entryNodeID)
		}

		rec.Apply(patch)
		return s.progressRepo.Upsert(txCtx, orgID, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("apply state patch: %w", err)
	}

	return rec, nil
}

// ResolveCurrentNode returns the node the user's record points at. A stale
// pointer (node deleted since) is a distinct not-found outcome so losing the
// user's place stays visible; it is never masked by falling back to the root.
func (s *stateService) ResolveCurrentNode(ctx context.Context, orgID, userID string) (*models.Node, error) {
	tree, err := s.loadTree(ctx, orgID)
	if err != nil {
		return nil, err
	}

	rec, err := s.GetOrCreateState(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	node := tree.FindByID(rec.CurrentNodeID)
	if node == nil {
		return nil, &domain.StepNotFoundError{NodeID: rec.CurrentNodeID}
	}

	return node, nil
}

// DispatchButton executes the indexed button on the user's current node.
// State transitions are applied as one atomic patch inside a transaction;
// outbound api/db effects run afterwards, best effort, so their failure can
// never corrupt the navigation state.
func (s *stateService) DispatchButton(ctx context.Context, orgID, userID string, buttonIndex int) (*services.DispatchResult, error) {
	tree, err := s.loadTree(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var (
		rec     *models.UserProgressRecord
		effect  *models.Effect
		outcome dispatchOutcome
	)

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.progressRepo.GetForUpdate(txCtx, orgID, userID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = models.NewUserProgressRecord(userID, s.entryNodeID)
		}

		node := tree.FindByID(rec.CurrentNodeID)
		if node == nil {
			return &domain.StepNotFoundError{NodeID: rec.CurrentNodeID}
		}

		if buttonIndex < 0 || buttonIndex >= len(node.Buttons) {
			return &domain.ValidationError{
				Message: fmt.Sprintf("node %q has no button at index %d", node.ID, buttonIndex),
			}
		}

		var patch *models.ProgressPatch
		patch, effect, outcome = dispatch(rec, node, node.Buttons[buttonIndex], s.registry)
		if patch.IsZero() {
			return nil
		}

		rec.Apply(patch)
		return s.progressRepo.Upsert(txCtx, orgID, rec)
	})
	if err != nil {
		return nil, err
	}

	metrics.Dispatches.WithLabelValues(string(outcome)).Inc()
	s.logger.Debug("button dispatched",
		"org_id", orgID,
		"user_id", userID,
		"outcome", string(outcome),
		"current_node", rec.CurrentNodeID,
	)

	if effect != nil && effect.Type != models.EffectDownload {
		// Server-side effects are fire-and-forget; the request does not
		// wait on them and their context must outlive it.
		go s.effects.Run(context.WithoutCancel(ctx), effect)
	}

	return &services.DispatchResult{State: rec, Effect: effect}, nil
}

// loadTree fetches and indexes the organization's flow.
func (s *stateService) loadTree(ctx context.Context, orgID string) (*flowtree.Tree, error) {
	doc, err := s.flowRepo.GetFlow(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}
	if doc == nil {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("no onboarding flow published for org %q", orgID),
		}
	}

	tree, err := flowtree.New(doc.Root)
	if err != nil {
		return nil, fmt.Errorf("index flow: %w", err)
	}
	return tree, nil
}
