package loans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.Copy{}, &entities.Loan{})
	require.NoError(t, err)

	return db
}

func seedLoanDeps(t *testing.T, db *gorm.DB) (*entities.User, *entities.Book, *entities.Copy) {
	t.Helper()
	user := &entities.User{Name: "Alice", Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(user).Error)
	book := &entities.Book{Title: "Test Book", Author: "Test Author"}
	require.NoError(t, db.Create(book).Error)
	copy := &entities.Copy{BookID: book.ID, Label: "T-1", Available: true}
	require.NoError(t, db.Create(copy).Error)
	return user, book, copy
}

func TestRepository_CreateAndGetLoan(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)
	user, book, copy := seedLoanDeps(t, db)

	loan := &entities.Loan{
		UserID:    user.ID,
		BookID:    book.ID,
		CopyID:    copy.ID,
		IssueDate: time.Now(),
	}
	require.NoError(t, repo.CreateLoan(ctx, loan))
	require.NotZero(t, loan.ID)

	got, err := repo.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())
	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, "T-1", got.Copy.Label)

	_, err = repo.GetLoan(ctx, 999)
	assert.ErrorIs(t, err, issuance.ErrNotFound)
}

func TestRepository_CloseAndReopenLoan(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)
	user, book, copy := seedLoanDeps(t, db)

	loan := &entities.Loan{UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: time.Now()}
	require.NoError(t, repo.CreateLoan(ctx, loan))

	require.NoError(t, repo.CloseLoan(ctx, loan.ID, time.Now()))

	got, err := repo.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.False(t, got.Open())

	require.NoError(t, repo.ReopenLoan(ctx, loan.ID))

	got, err = repo.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())

	t.Run("unknown loan", func(t *testing.T) {
		assert.ErrorIs(t, repo.CloseLoan(ctx, 999, time.Now()), issuance.ErrNotFound)
		assert.ErrorIs(t, repo.ReopenLoan(ctx, 999), issuance.ErrNotFound)
	})
}

func TestRepository_ListLoansByUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)
	user, book, copy := seedLoanDeps(t, db)

	other := &entities.User{Name: "Bob", Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(other).Error)

	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: time.Now()}))
	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{UserID: other.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: time.Now()}))

	mine, err := repo.ListLoansByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := repo.ListLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_FindOverdue(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)
	user, book, copy := seedLoanDeps(t, db)

	now := time.Now()
	pastDue := now.Add(-48 * time.Hour)
	futureDue := now.Add(48 * time.Hour)
	returned := now.Add(-24 * time.Hour)

	overdue := &entities.Loan{UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: now.Add(-100 * time.Hour), DueDate: &pastDue}
	require.NoError(t, repo.CreateLoan(ctx, overdue))

	// Not yet due
	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{
		UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: now, DueDate: &futureDue,
	}))

	// Past due but already returned
	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{
		UserID: user.ID, BookID: book.ID, CopyID: copy.ID,
		IssueDate: now.Add(-100 * time.Hour), DueDate: &pastDue, ReturnDate: &returned,
	}))

	// No due date at all
	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{
		UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: now,
	}))

	found, err := repo.FindOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, overdue.ID, found[0].ID)

	t.Run("already notified loans are skipped", func(t *testing.T) {
		stamped, err := repo.MarkOverdueNotified(ctx, overdue.ID, now)
		require.NoError(t, err)
		assert.True(t, stamped)

		found, err := repo.FindOverdue(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("notification stamp applies only once", func(t *testing.T) {
		stamped, err := repo.MarkOverdueNotified(ctx, overdue.ID, now)
		require.NoError(t, err)
		assert.False(t, stamped)
	})
}

func TestRepository_DeleteLoan(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)
	user, book, copy := seedLoanDeps(t, db)

	loan := &entities.Loan{UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: time.Now()}
	require.NoError(t, repo.CreateLoan(ctx, loan))

	require.NoError(t, repo.DeleteLoan(ctx, loan.ID))

	_, err := repo.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, issuance.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteLoan(ctx, loan.ID), issuance.ErrNotFound)
}

func TestRepository_CountOpenLoansByCopy(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)
	user, book, copy := seedLoanDeps(t, db)

	returned := time.Now()
	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{
		UserID: user.ID, BookID: book.ID, CopyID: copy.ID,
		IssueDate: time.Now().Add(-time.Hour), ReturnDate: &returned,
	}))
	require.NoError(t, repo.CreateLoan(ctx, &entities.Loan{
		UserID: user.ID, BookID: book.ID, CopyID: copy.ID, IssueDate: time.Now(),
	}))

	count, err := repo.CountOpenLoansByCopy(ctx, copy.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
