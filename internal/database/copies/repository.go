// Package copies provides database operations for the copy catalog,
// including the conditional acquire/release operations the issuance engine
// builds its exclusivity guarantee on.
package copies

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// Repository handles all copy database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new copies repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetCopy retrieves a copy by ID.
func (r *Repository) GetCopy(ctx context.Context, id uint) (*entities.Copy, error) {
	var copy entities.Copy
	err := r.db.WithContext(ctx).Preload("Book").First(&copy, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("copy %d: %w", id, issuance.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &copy, nil
}

// GetCopyByLabel retrieves a copy by its unique label.
func (r *Repository) GetCopyByLabel(ctx context.Context, label string) (*entities.Copy, error) {
	var copy entities.Copy
	err := r.db.WithContext(ctx).Where("label = ?", label).First(&copy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("copy %q: %w", label, issuance.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &copy, nil
}

// ListCopies returns all copies with their books preloaded.
func (r *Repository) ListCopies(ctx context.Context) ([]entities.Copy, error) {
	var copies []entities.Copy
	err := r.db.WithContext(ctx).Preload("Book").Order("label ASC").Find(&copies).Error
	return copies, err
}

// ListCopiesForBook returns all copies of one book.
func (r *Repository) ListCopiesForBook(ctx context.Context, bookID uint) ([]entities.Copy, error) {
	var copies []entities.Copy
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Order("label ASC").Find(&copies).Error
	return copies, err
}

// CountCopiesForBook returns how many copies a book has.
func (r *Repository) CountCopiesForBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Copy{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// CreateCopy adds a single copy. The label must be unique across the whole
// catalog; a clash is reported as ErrConflict.
func (r *Repository) CreateCopy(ctx context.Context, copy *entities.Copy) error {
	var existing entities.Copy
	err := r.db.WithContext(ctx).Where("label = ?", copy.Label).First(&existing).Error
	if err == nil {
		return fmt.Errorf("copy label %q already exists: %w", copy.Label, issuance.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(copy).Error
}

// CreateCopies batch-inserts copies, e.g. when an admin registers several
// copies alongside a new book.
func (r *Repository) CreateCopies(ctx context.Context, copies []entities.Copy) error {
	if len(copies) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&copies).Error
}

// UpdateLabel renames a copy. A copy that is on loan is immutable except
// through the issuance engine, so the update only applies while the copy is
// available.
func (r *Repository) UpdateLabel(ctx context.Context, id uint, label string) (*entities.Copy, error) {
	result := r.db.WithContext(ctx).Model(&entities.Copy{}).
		Where("id = ? AND available = ?", id, true).
		Update("label", label)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the copy does not exist or it is currently on loan.
		copy, err := r.GetCopy(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("copy %q is on loan: %w", copy.Label, issuance.ErrConflict)
	}
	return r.GetCopy(ctx, id)
}

// DeleteCopy removes a copy. Copies on loan cannot be deleted.
func (r *Repository) DeleteCopy(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND available = ?", id, true).
		Delete(&entities.Copy{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		copy, err := r.GetCopy(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("copy %q is on loan: %w", copy.Label, issuance.ErrConflict)
	}
	return nil
}

// TryAcquireCopy atomically flips the copy to unavailable if it is currently
// available. The affected-row count is the concurrency gate: when two issue
// requests race on the same label, only one update matches.
func (r *Repository) TryAcquireCopy(ctx context.Context, label string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Copy{}).
		Where("label = ? AND available = ?", label, true).
		Update("available", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReleaseCopy marks a copy available again. Releasing an already-available
// copy is a no-op.
func (r *Repository) ReleaseCopy(ctx context.Context, copyID uint) error {
	return r.db.WithContext(ctx).Model(&entities.Copy{}).
		Where("id = ?", copyID).
		Update("available", true).Error
}
