// Package issuance implements the book-copy issuance workflow: issuing a
// copy to a user, returning it, and administrative loan corrections.
//
// The engine is the single authority allowed to flip a copy between
// available and unavailable, always in lockstep with creating or closing a
// loan. Concurrent issue attempts on the same copy are serialized by the
// catalog store's conditional acquire (an atomic check-and-set on the
// availability flag), so exactly one of them wins.
package issuance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// CatalogStore is the slice of the copy catalog the engine needs.
//
// TryAcquireCopy must be atomic: it flips the availability flag only if the
// copy is currently available and reports whether it did. Lookups return
// ErrNotFound for unknown copies.
type CatalogStore interface {
	GetCopy(ctx context.Context, id uint) (*entities.Copy, error)
	GetCopyByLabel(ctx context.Context, label string) (*entities.Copy, error)
	TryAcquireCopy(ctx context.Context, label string) (bool, error)
	ReleaseCopy(ctx context.Context, copyID uint) error
}

// LoanStore persists loan records. Lookups return ErrNotFound for unknown
// loans.
type LoanStore interface {
	CreateLoan(ctx context.Context, loan *entities.Loan) error
	GetLoan(ctx context.Context, id uint) (*entities.Loan, error)
	SaveLoan(ctx context.Context, loan *entities.Loan) error
	CloseLoan(ctx context.Context, id uint, returnedAt time.Time) error
	ReopenLoan(ctx context.Context, id uint) error
	DeleteLoan(ctx context.Context, id uint) error
}

// Engine coordinates the catalog and loan stores so that copy availability
// and loan state never diverge.
type Engine struct {
	catalog    CatalogStore
	loans      LoanStore
	loanPeriod time.Duration
}

// NewEngine creates an issuance engine. loanPeriod is used to derive a due
// date when an issue request does not carry one; zero disables due dates.
func NewEngine(catalog CatalogStore, loans LoanStore, loanPeriod time.Duration) *Engine {
	return &Engine{
		catalog:    catalog,
		loans:      loans,
		loanPeriod: loanPeriod,
	}
}

// IssueRequest carries the fields required to issue a copy.
type IssueRequest struct {
	UserID    uint
	BookID    uint
	CopyLabel string
	IssueDate time.Time
	DueDate   *time.Time
}

func (r IssueRequest) validate() error {
	switch {
	case r.UserID == 0:
		return fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	case r.BookID == 0:
		return fmt.Errorf("%w: bookId is required", ErrInvalidArgument)
	case r.CopyLabel == "":
		return fmt.Errorf("%w: copyId is required", ErrInvalidArgument)
	case r.IssueDate.IsZero():
		return fmt.Errorf("%w: issueDate is required", ErrInvalidArgument)
	}
	return nil
}

// Issue lends the copy identified by its label to a user and returns the new
// loan's ID.
//
// The availability check and flip happen in one conditional update, so two
// concurrent calls on the same copy cannot both succeed. If the loan insert
// fails after the copy was acquired, the acquisition is rolled back before
// the error is returned, keeping the flag and the loan records in lockstep.
func (e *Engine) Issue(ctx context.Context, req IssueRequest) (uint, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}

	copy, err := e.catalog.GetCopyByLabel(ctx, req.CopyLabel)
	if err != nil {
		return 0, fmt.Errorf("look up copy %q: %w", req.CopyLabel, err)
	}

	acquired, err := e.catalog.TryAcquireCopy(ctx, req.CopyLabel)
	if err != nil {
		return 0, fmt.Errorf("acquire copy %q: %w", req.CopyLabel, err)
	}
	if !acquired {
		return 0, fmt.Errorf("copy %q is already issued: %w", req.CopyLabel, ErrConflict)
	}

	dueDate := req.DueDate
	if dueDate == nil && e.loanPeriod > 0 {
		due := req.IssueDate.Add(e.loanPeriod)
		dueDate = &due
	}

	loan := &entities.Loan{
		UserID:    req.UserID,
		BookID:    req.BookID,
		CopyID:    copy.ID,
		IssueDate: req.IssueDate,
		DueDate:   dueDate,
	}

	if err := e.loans.CreateLoan(ctx, loan); err != nil {
		// Undo the acquisition so the copy does not stay locked without an
		// open loan backing it.
		if relErr := e.catalog.ReleaseCopy(ctx, copy.ID); relErr != nil {
			log.Printf("issuance: failed to release copy %d after loan create error: %v", copy.ID, relErr)
		}
		return 0, fmt.Errorf("create loan: %w", err)
	}

	return loan.ID, nil
}

// Return closes a loan and frees its copy. Returning an already-closed loan
// is a no-op, so retried requests are harmless.
func (e *Engine) Return(ctx context.Context, loanID uint, returnedAt time.Time) error {
	if returnedAt.IsZero() {
		return fmt.Errorf("%w: returnDate is required", ErrInvalidArgument)
	}

	loan, err := e.loans.GetLoan(ctx, loanID)
	if err != nil {
		return fmt.Errorf("look up loan %d: %w", loanID, err)
	}
	if !loan.Open() {
		return nil
	}

	if err := e.loans.CloseLoan(ctx, loanID, returnedAt); err != nil {
		return fmt.Errorf("close loan %d: %w", loanID, err)
	}

	if err := e.catalog.ReleaseCopy(ctx, loan.CopyID); err != nil {
		// The copy stayed locked; reopen the loan so state stays consistent.
		if reopenErr := e.loans.ReopenLoan(ctx, loanID); reopenErr != nil {
			log.Printf("issuance: failed to reopen loan %d after release error: %v", loanID, reopenErr)
		}
		return fmt.Errorf("release copy %d: %w", loan.CopyID, err)
	}

	return nil
}

// Delete removes a loan record entirely (administrative hard-delete) and
// frees its copy, converging on the same end state as Return.
func (e *Engine) Delete(ctx context.Context, loanID uint) error {
	loan, err := e.loans.GetLoan(ctx, loanID)
	if err != nil {
		return fmt.Errorf("look up loan %d: %w", loanID, err)
	}

	// Only an open loan holds its copy. Deleting a closed historical record
	// must not free a copy that may be on loan to someone else by now.
	// The release comes first: if the delete then fails the copy is
	// re-acquired, while the reverse order could leave the copy locked with
	// no loan row behind it.
	if loan.Open() {
		if err := e.catalog.ReleaseCopy(ctx, loan.CopyID); err != nil {
			return fmt.Errorf("release copy %d: %w", loan.CopyID, err)
		}
	}

	if err := e.loans.DeleteLoan(ctx, loanID); err != nil {
		if loan.Open() {
			e.reacquireCopy(ctx, loan.CopyID)
		}
		return fmt.Errorf("delete loan %d: %w", loanID, err)
	}

	return nil
}

// reacquireCopy flips a copy back to unavailable after an undone release.
// Best effort; a failure here is logged and leaves the copy free rather
// than locked without a loan behind it.
func (e *Engine) reacquireCopy(ctx context.Context, copyID uint) {
	copy, err := e.catalog.GetCopy(ctx, copyID)
	if err != nil {
		log.Printf("issuance: failed to look up copy %d for re-acquire: %v", copyID, err)
		return
	}
	if _, err := e.catalog.TryAcquireCopy(ctx, copy.Label); err != nil {
		log.Printf("issuance: failed to re-acquire copy %d: %v", copyID, err)
	}
}

// LoanPatch describes an administrative loan correction. Nil fields are left
// untouched. ClearReturnDate reopens a closed loan; it is mutually exclusive
// with ReturnDate.
type LoanPatch struct {
	UserID          *uint
	BookID          *uint
	CopyLabel       *string
	IssueDate       *time.Time
	DueDate         *time.Time
	ReturnDate      *time.Time
	ClearReturnDate bool
}

// Update applies an administrative correction to a loan.
//
// Setting a return date on an open loan triggers the same copy-release side
// effect as Return. Moving an open loan to a different copy re-runs the
// availability gate on the new copy and frees the old one. Clearing the
// return date of a closed loan re-acquires its copy, failing with
// ErrConflict if someone else holds it by now.
func (e *Engine) Update(ctx context.Context, loanID uint, patch LoanPatch) (*entities.Loan, error) {
	if patch.ReturnDate != nil && patch.ClearReturnDate {
		return nil, fmt.Errorf("%w: returnDate cannot be both set and cleared", ErrInvalidArgument)
	}

	loan, err := e.loans.GetLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("look up loan %d: %w", loanID, err)
	}

	wasOpen := loan.Open()
	closing := wasOpen && patch.ReturnDate != nil
	reopening := !wasOpen && patch.ClearReturnDate
	openAfter := (wasOpen && !closing) || reopening
	originalCopyID := loan.CopyID

	// Availability flips made before the save, so a failed save can undo
	// them instead of stranding a copy without a loan behind it.
	var acquiredCopyID uint
	releasedOriginal := false

	// Resolve a copy change first so exclusivity is re-checked before
	// anything is written.
	copyChanged := false
	if patch.CopyLabel != nil {
		newCopy, err := e.catalog.GetCopyByLabel(ctx, *patch.CopyLabel)
		if err != nil {
			return nil, fmt.Errorf("look up copy %q: %w", *patch.CopyLabel, err)
		}
		if newCopy.ID != loan.CopyID {
			copyChanged = true
			if openAfter {
				acquired, err := e.catalog.TryAcquireCopy(ctx, newCopy.Label)
				if err != nil {
					return nil, fmt.Errorf("acquire copy %q: %w", newCopy.Label, err)
				}
				if !acquired {
					return nil, fmt.Errorf("copy %q is already issued: %w", newCopy.Label, ErrConflict)
				}
				acquiredCopyID = newCopy.ID
				if wasOpen {
					if err := e.catalog.ReleaseCopy(ctx, originalCopyID); err != nil {
						if relErr := e.catalog.ReleaseCopy(ctx, newCopy.ID); relErr != nil {
							log.Printf("issuance: failed to release copy %d after move error: %v", newCopy.ID, relErr)
						}
						return nil, fmt.Errorf("release copy %d: %w", originalCopyID, err)
					}
					releasedOriginal = true
				}
			}
			loan.CopyID = newCopy.ID
		}
	}

	if reopening && !copyChanged {
		copy, err := e.catalog.GetCopy(ctx, loan.CopyID)
		if err != nil {
			return nil, fmt.Errorf("look up copy %d: %w", loan.CopyID, err)
		}
		acquired, err := e.catalog.TryAcquireCopy(ctx, copy.Label)
		if err != nil {
			return nil, fmt.Errorf("acquire copy %q: %w", copy.Label, err)
		}
		if !acquired {
			return nil, fmt.Errorf("copy %q is already issued: %w", copy.Label, ErrConflict)
		}
		acquiredCopyID = copy.ID
	}

	if patch.UserID != nil {
		loan.UserID = *patch.UserID
	}
	if patch.BookID != nil {
		loan.BookID = *patch.BookID
	}
	if patch.IssueDate != nil {
		loan.IssueDate = *patch.IssueDate
	}
	if patch.DueDate != nil {
		loan.DueDate = patch.DueDate
	}
	if patch.ReturnDate != nil {
		loan.ReturnDate = patch.ReturnDate
	}
	if patch.ClearReturnDate {
		loan.ReturnDate = nil
	}

	if err := e.loans.SaveLoan(ctx, loan); err != nil {
		// Undo the availability flips so the flag and the loan records stay
		// in lockstep, mirroring the Issue compensation.
		if acquiredCopyID != 0 {
			if relErr := e.catalog.ReleaseCopy(ctx, acquiredCopyID); relErr != nil {
				log.Printf("issuance: failed to release copy %d after loan save error: %v", acquiredCopyID, relErr)
			}
		}
		if releasedOriginal {
			e.reacquireCopy(ctx, originalCopyID)
		}
		return nil, fmt.Errorf("save loan %d: %w", loanID, err)
	}

	if closing {
		// The loan held its original copy until now; free it.
		if err := e.catalog.ReleaseCopy(ctx, originalCopyID); err != nil {
			if reopenErr := e.loans.ReopenLoan(ctx, loanID); reopenErr != nil {
				log.Printf("issuance: failed to reopen loan %d after release error: %v", loanID, reopenErr)
			}
			return nil, fmt.Errorf("release copy %d: %w", originalCopyID, err)
		}
	}

	return loan, nil
}
