package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/events"
	"debtbook/internal/ledger"
	"debtbook/internal/logger"
	"debtbook/internal/models"
)

// ledgerService fetches a user's records and runs the ledger engine over them.
type ledgerService struct {
	db           *gorm.DB
	publisher    events.Publisher
	auditService AuditServicer

	// userLocks serializes recurring processing per user.
	userLocks sync.Map
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB, publisher events.Publisher, auditService AuditServicer) LedgerServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ledgerService{
		db:           db,
		publisher:    publisher,
		auditService: auditService,
	}
}

// LoadSession fetches the user's counterparties and transactions concurrently.
func (s *ledgerService) LoadSession(ctx context.Context, userID string) (*Session, error) {
	session := &Session{UserID: userID, LoadedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("user_id = ?", userID).
			Order("name ASC").
			Find(&session.Counterparties).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Where("user_id = ?", userID).
			Order("date ASC").
			Order("created_at ASC").
			Find(&session.Transactions).Error
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if orphans := session.OrphanedPartialPayments(); len(orphans) > 0 {
		logger.Get().Warnw("partial payments reference missing debts",
			"user_id", userID,
			"count", len(orphans),
		)
	}
	return session, nil
}

func (s *ledgerService) loadTemplates(ctx context.Context, userID string) ([]models.Transaction, error) {
	var candidates []models.Transaction
	if err := s.db.WithContext(ctx).
		Scopes(templatesScope).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&candidates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	templates := candidates[:0]
	for _, tx := range candidates {
		if tx.IsTemplate() {
			templates = append(templates, tx)
		}
	}
	return templates, nil
}

// GetRecurringTemplates lists the user's templates with their state relative to today.
func (s *ledgerService) GetRecurringTemplates(ctx context.Context, userID string, today time.Time) ([]TemplateStatus, error) {
	templates, err := s.loadTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]TemplateStatus, 0, len(templates))
	for _, tpl := range templates {
		status := TemplateStatus{Template: tpl, State: ledger.EvaluateRecurrence(tpl, today)}
		if status.State != ledger.StateExpired {
			if next, ok := ledger.NextDueDate(tpl); ok {
				status.NextDueDate = &next
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// UsersWithTemplates returns every user owning at least one recurring template.
func (s *ledgerService) UsersWithTemplates(ctx context.Context) ([]string, error) {
	var userIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Scopes(templatesScope).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return userIDs, nil
}

func (s *ledgerService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ProcessRecurring materializes at most one instance per due template. Each
// instance is written in the same database transaction that advances its
// template, so a failure leaves neither effect behind.
func (s *ledgerService) ProcessRecurring(ctx context.Context, userID string, today time.Time) (*RecurringRunResult, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	templates, err := s.loadTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &RecurringRunResult{
		UserID:       userID,
		Evaluated:    len(templates),
		Materialized: []models.Transaction{},
		Expired:      []string{},
	}
	for _, tpl := range templates {
		if ledger.EvaluateRecurrence(tpl, today) != ledger.StateExpired {
			continue
		}
		result.Expired = append(result.Expired, tpl.ID)
		if tpl.Recurring.ExpiredAt != nil {
			continue
		}
		marked, err := s.markExpired(ctx, userID, tpl.ID, today)
		if err != nil {
			logger.Get().Errorw("failed to mark recurring template expired",
				"error", err,
				"user_id", userID,
				"template_id", tpl.ID,
			)
			continue
		}
		if marked != nil {
			s.publishExpired(ctx, *marked)
		}
	}

	for _, occ := range ledger.PlanOccurrences(templates, today) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		instance, err := s.materialize(ctx, userID, occ, today)
		if err != nil {
			logger.Get().Errorw("failed to materialize recurring transaction",
				"error", err,
				"user_id", userID,
				"template_id", occ.Template.ID,
			)
			result.Skipped++
			continue
		}
		if instance == nil {
			result.Skipped++
			continue
		}

		result.Materialized = append(result.Materialized, *instance)
		s.afterMaterialize(ctx, occ, instance)
	}

	return result, nil
}

// materialize persists one occurrence. It returns nil without error when the
// template was advanced concurrently and is no longer due.
func (s *ledgerService) materialize(ctx context.Context, userID string, occ ledger.Occurrence, today time.Time) (*models.Transaction, error) {
	var instance *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findTransaction(lockForUpdate(tx), userID, occ.Template.ID)
		if err != nil {
			return err
		}
		if !ledger.IsTransactionDue(*current, today) {
			return nil
		}

		created := ledger.MaterializeInstance(*current, occ.Date)
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create instance: %w", err)
		}

		advanced := ledger.AdvanceTemplate(*current, occ.Date)
		if err := tx.Save(&advanced).Error; err != nil {
			return fmt.Errorf("advance template: %w", err)
		}

		instance = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// markExpired records the first day the template was seen expired. It returns
// nil without error when another pass already marked it.
func (s *ledgerService) markExpired(ctx context.Context, userID, templateID string, today time.Time) (*models.Transaction, error) {
	var marked *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findTransaction(lockForUpdate(tx), userID, templateID)
		if err != nil {
			return err
		}
		if !current.IsTemplate() || current.Recurring.ExpiredAt != nil ||
			ledger.EvaluateRecurrence(*current, today) != ledger.StateExpired {
			return nil
		}

		updated := ledger.MarkExpired(*current, today)
		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("mark expired: %w", err)
		}
		marked = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// lockForUpdate locks the selected template rows until the surrounding
// transaction ends, so processes sharing a database see each other's advances.
// SQLite has no row locks and ignores the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *ledgerService) afterMaterialize(ctx context.Context, occ ledger.Occurrence, instance *models.Transaction) {
	logger.Get().Infow("materialized recurring transaction",
		"user_id", instance.UserID,
		"template_id", occ.Template.ID,
		"instance_id", instance.ID,
		"date", occ.Date.Format(time.DateOnly),
	)

	event := events.InstanceMaterialized{
		UserID:         instance.UserID,
		TemplateID:     occ.Template.ID,
		InstanceID:     instance.ID,
		CounterpartyID: instance.CounterpartyID,
		Type:           string(instance.Type),
		Amount:         instance.Amount,
		OccurrenceDate: occ.Date,
		Timestamp:      time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish materialization event",
			"error", err,
			"instance_id", instance.ID,
		)
	}

	if s.auditService != nil {
		s.auditService.Log(instance.UserID, ActionMaterializeRecurring, ResourceTransaction, instance.ID, "",
			map[string]any{
				"template_id": occ.Template.ID,
				"date":        occ.Date.Format(time.DateOnly),
			})
	}
}

func (s *ledgerService) publishExpired(ctx context.Context, tpl models.Transaction) {
	event := events.TemplateExpired{
		UserID:     tpl.UserID,
		TemplateID: tpl.ID,
		EndDate:    *tpl.Recurring.EndDate,
		Timestamp:  time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish expiry event",
			"error", err,
			"template_id", tpl.ID,
		)
	}
}
