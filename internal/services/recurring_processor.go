package services

import (
	"context"
	"fmt"
	"time"

	"debtbook/internal/logger"
)

// RecurringProcessor runs recurring materialization for every user that owns templates.
type RecurringProcessor struct {
	ledgerService LedgerServicer
}

// NewRecurringProcessor creates a new recurring transaction processor
func NewRecurringProcessor(ledgerService LedgerServicer) *RecurringProcessor {
	return &RecurringProcessor{ledgerService: ledgerService}
}

// ProcessAll processes every user's due templates as of now and returns the
// number of instances created. A failure for one user does not stop the others.
func (p *RecurringProcessor) ProcessAll(ctx context.Context, now time.Time) (int, error) {
	if p.ledgerService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	userIDs, err := p.ledgerService.UsersWithTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users with templates: %w", err)
	}

	log := logger.Named("recurring")
	log.Infow("Processing recurring transactions",
		"users", len(userIDs),
		"processing_date", now.Format(time.DateOnly),
	)

	created := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		result, err := p.ledgerService.ProcessRecurring(ctx, userID, now)
		if err != nil {
			log.Errorw("Failed to process recurring transactions", "user_id", userID, "error", err)
			continue
		}
		created += len(result.Materialized)

		if len(result.Materialized) > 0 || result.Skipped > 0 {
			log.Infow("Processed user templates",
				"user_id", userID,
				"evaluated", result.Evaluated,
				"materialized", len(result.Materialized),
				"expired", len(result.Expired),
				"skipped", result.Skipped,
			)
		}
	}

	log.Infow("Recurring processing complete", "created", created, "users", len(userIDs))
	return created, nil
}
