package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// OverdueLoanStore is the slice of the loan store the overdue task needs.
type OverdueLoanStore interface {
	GetLoan(ctx context.Context, id uint) (*entities.Loan, error)
	MarkOverdueNotified(ctx context.Context, id uint, at time.Time) (bool, error)
}

// OverdueNotifier records that a loan went overdue. Currently backed by the
// audit trail; an email sender would hang off the same hook.
type OverdueNotifier interface {
	LogOverdue(loan *entities.Loan)
}

// NotifyOverdueLoanTask flags one overdue loan and records the notice.
type NotifyOverdueLoanTask struct {
	LoanID uint `json:"loan_id"`
}

// Config returns the queue configuration for overdue notification tasks.
func (t NotifyOverdueLoanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "notify_overdue_loan",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NotifyOverdueLoanProcessor creates a processor function for
// NotifyOverdueLoanTask. The conditional notification stamp makes retried or
// duplicate tasks for the same loan no-ops.
func NotifyOverdueLoanProcessor(store OverdueLoanStore, notifier OverdueNotifier) backlite.QueueProcessor[NotifyOverdueLoanTask] {
	return func(ctx context.Context, task NotifyOverdueLoanTask) error {
		loan, err := store.GetLoan(ctx, task.LoanID)
		if err != nil {
			// The loan may have been hard-deleted since the scan enqueued it.
			if errors.Is(err, issuance.ErrNotFound) {
				log.Printf("[TASK] Overdue notice skipped, loan %d no longer exists", task.LoanID)
				return nil
			}
			return fmt.Errorf("load loan %d: %w", task.LoanID, err)
		}

		// Returned between scan and processing
		if !loan.Open() {
			return nil
		}

		stamped, err := store.MarkOverdueNotified(ctx, loan.ID, time.Now())
		if err != nil {
			return fmt.Errorf("mark loan %d notified: %w", loan.ID, err)
		}
		if !stamped {
			return nil
		}

		notifier.LogOverdue(loan)
		log.Printf("[TASK] Overdue notice recorded for loan %d (copy %s, due %v)",
			loan.ID, loan.Copy.Label, loan.DueDate)
		return nil
	}
}

// NewNotifyOverdueLoanQueue creates a backlite queue for overdue notices.
func NewNotifyOverdueLoanQueue(store OverdueLoanStore, notifier OverdueNotifier) backlite.Queue {
	return backlite.NewQueue(NotifyOverdueLoanProcessor(store, notifier))
}
