package users

import (
	"context"
	"testing"

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

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	return db
}

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)

	user := &entities.User{Name: "Alice", Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	byID, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetUser(ctx, 999)
	assert.ErrorIs(t, err, issuance.ErrNotFound)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, issuance.ErrNotFound)
}

func TestRepository_ListUsers(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.CreateUser(ctx, &entities.User{Username: "zoe", Email: "zoe@example.com"}))
	require.NoError(t, repo.CreateUser(ctx, &entities.User{Username: "adam", Email: "adam@example.com"}))

	list, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "adam", list[0].Username)
}

func TestRepository_DeleteUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db)

	user := &entities.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.DeleteUser(ctx, user.ID))

	_, err := repo.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, issuance.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteUser(ctx, user.ID), issuance.ErrNotFound)
}
