// Package books provides database operations for the book catalog.
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a new book.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetBook retrieves a book by ID with its copies preloaded.
func (r *Repository) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Copies").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("book %d: %w", id, issuance.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns all books.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Order("title ASC").Find(&books).Error
	return books, err
}

// SaveBook persists all fields of an existing book.
func (r *Repository) SaveBook(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Omit("Copies").Save(book).Error
}

// DeleteBook removes a book. A book that still has copies registered cannot
// be deleted; the copies (and any loans on them) have to go first.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	var copyCount int64
	err := r.db.WithContext(ctx).Model(&entities.Copy{}).
		Where("book_id = ?", id).Count(&copyCount).Error
	if err != nil {
		return err
	}
	if copyCount > 0 {
		return fmt.Errorf("book %d still has %d copies: %w", id, copyCount, issuance.ErrConflict)
	}

	result := r.db.WithContext(ctx).Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("book %d: %w", id, issuance.ErrNotFound)
	}
	return nil
}
