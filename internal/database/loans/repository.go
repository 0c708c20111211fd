// Package loans provides database operations for loan (issued book) records.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateLoan inserts a new loan record.
func (r *Repository) CreateLoan(ctx context.Context, loan *entities.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetLoan retrieves a loan by ID with its user, book and copy preloaded.
func (r *Repository) GetLoan(ctx context.Context, id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Book").Preload("Copy").
		First(&loan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loan %d: %w", id, issuance.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListLoans returns all loans, newest first.
func (r *Repository) ListLoans(ctx context.Context) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Book").Preload("Copy").
		Order("issue_date DESC").Find(&loans).Error
	return loans, err
}

// ListLoansByUser returns all loans of one borrower, newest first.
func (r *Repository) ListLoansByUser(ctx context.Context, userID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").Preload("Copy").
		Where("user_id = ?", userID).
		Order("issue_date DESC").Find(&loans).Error
	return loans, err
}

// ListLoansByCopy returns all loans that ever referenced one copy.
func (r *Repository) ListLoansByCopy(ctx context.Context, copyID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Book").
		Where("copy_id = ?", copyID).
		Order("issue_date DESC").Find(&loans).Error
	return loans, err
}

// CountOpenLoansByCopy counts loans on a copy that have no return date yet.
func (r *Repository) CountOpenLoansByCopy(ctx context.Context, copyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("copy_id = ? AND return_date IS NULL", copyID).
		Count(&count).Error
	return count, err
}

// SaveLoan persists all fields of an existing loan.
func (r *Repository) SaveLoan(ctx context.Context, loan *entities.Loan) error {
	return r.db.WithContext(ctx).Omit("User", "Book", "Copy").Save(loan).Error
}

// CloseLoan stamps the return date on a loan.
func (r *Repository) CloseLoan(ctx context.Context, id uint, returnedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("id = ?", id).
		Update("return_date", returnedAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("loan %d: %w", id, issuance.ErrNotFound)
	}
	return nil
}

// ReopenLoan clears the return date again. Used by the issuance engine to
// undo a close when freeing the copy failed.
func (r *Repository) ReopenLoan(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("id = ?", id).
		Update("return_date", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("loan %d: %w", id, issuance.ErrNotFound)
	}
	return nil
}

// DeleteLoan removes a loan record entirely.
func (r *Repository) DeleteLoan(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Loan{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("loan %d: %w", id, issuance.ErrNotFound)
	}
	return nil
}

// FindOverdue returns open loans whose due date has passed and that have not
// been flagged for notification yet.
func (r *Repository) FindOverdue(ctx context.Context, asOf time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Book").Preload("Copy").
		Where("return_date IS NULL AND overdue_notified_at IS NULL AND due_date IS NOT NULL AND due_date < ?", asOf).
		Order("due_date ASC").Find(&loans).Error
	return loans, err
}

// MarkOverdueNotified stamps the notification time once. The conditional
// update makes repeated notification tasks for the same loan no-ops.
func (r *Repository) MarkOverdueNotified(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("id = ? AND overdue_notified_at IS NULL", id).
		Update("overdue_notified_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
