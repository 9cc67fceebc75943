package repositories_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userapi/internal/config"
	"userapi/internal/database"
	"userapi/internal/models"
	"userapi/internal/repositories"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Dialect:  config.DialectSQLite,
		Name:     "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Synchronize(context.Background(), db))
	return db
}

// runRepositoryContract exercises behaviour shared by every UserRepository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) repositories.UserRepository) {
	ctx := context.Background()

	t.Run("CreateAssignsSequentialIDs", func(t *testing.T) {
		repo := newRepo(t)
		alice := &models.User{Username: "alice", Email: "a@x.com"}
		bob := &models.User{Username: "bob", Email: "b@x.com"}
		require.NoError(t, repo.Create(ctx, alice))
		require.NoError(t, repo.Create(ctx, bob))
		assert.Equal(t, uint(1), alice.ID)
		assert.Equal(t, uint(2), bob.ID)
		assert.Nil(t, alice.Password)
	})

	t.Run("CreateRejectsMissingRequiredFields", func(t *testing.T) {
		repo := newRepo(t)
		assert.Error(t, repo.Create(ctx, &models.User{Username: "alice"}))
		assert.Error(t, repo.Create(ctx, &models.User{Email: "a@x.com"}))

		users, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("GetByID", func(t *testing.T) {
		repo := newRepo(t)
		created := &models.User{Username: "alice", Email: "a@x.com"}
		require.NoError(t, repo.Create(ctx, created))

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, *created, *found)

		_, err = repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("GetAllOrderedAndEmpty", func(t *testing.T) {
		repo := newRepo(t)
		users, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)

		for _, name := range []string{"c", "a", "b"} {
			require.NoError(t, repo.Create(ctx, &models.User{Username: name, Email: name + "@x.com"}))
		}
		users, err = repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, []uint{1, 2, 3}, []uint{users[0].ID, users[1].ID, users[2].ID})
	})

	t.Run("UpdateReplacesUsernameAndEmail", func(t *testing.T) {
		repo := newRepo(t)
		created := &models.User{Username: "alice", Email: "a@x.com"}
		require.NoError(t, repo.Create(ctx, created))

		changed := &models.User{ID: created.ID, Username: "alice2", Email: "a2@x.com"}
		require.NoError(t, repo.Update(ctx, changed))

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice2", found.Username)
		assert.Equal(t, "a2@x.com", found.Email)
		assert.Nil(t, found.Password)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Update(ctx, &models.User{ID: 42, Username: "ghost", Email: "g@x.com"})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("UpdateRejectsEmptyFields", func(t *testing.T) {
		repo := newRepo(t)
		created := &models.User{Username: "alice", Email: "a@x.com"}
		require.NoError(t, repo.Create(ctx, created))

		err := repo.Update(ctx, &models.User{ID: created.ID, Username: "alice2"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, repositories.ErrNotFound)

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		created := &models.User{Username: "alice", Email: "a@x.com"}
		require.NoError(t, repo.Create(ctx, created))

		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err := repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, created.ID), repositories.ErrNotFound)
	})
}

func TestGORMUserRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) repositories.UserRepository {
		return repositories.NewGORMUserRepository(setupDB(t))
	})
}

func TestMockUserRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) repositories.UserRepository {
		return repositories.NewMockUserRepository()
	})
}

func TestGORMUserRepositoryUpdateKeepsPassword(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repositories.NewGORMUserRepository(db)

	password := "stored-hash"
	created := &models.User{Username: "alice", Email: "a@x.com", Password: &password}
	require.NoError(t, repo.Create(ctx, created))

	require.NoError(t, repo.Update(ctx, &models.User{ID: created.ID, Username: "alice2", Email: "a2@x.com"}))

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Password)
	assert.Equal(t, "stored-hash", *found.Password)
	assert.Equal(t, "alice2", found.Username)
}

func TestGORMUserRepositoryStoreFailure(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repositories.NewGORMUserRepository(db)
	require.NoError(t, database.Close(db))

	_, err := repo.GetAll(ctx)
	assert.Error(t, err)

	_, err = repo.GetByID(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrNotFound)
}
