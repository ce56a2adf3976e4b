package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstreet/couponclip/internal/domain/port/driven"
)

func TestAccountRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "shopper@example.com", "gAAAAA-ciphertext")
	require.NoError(t, err)
	require.Positive(t, id)

	acct, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", acct.Username)
	assert.Equal(t, "gAAAAA-ciphertext", acct.EncryptedPassword)
	assert.False(t, acct.CreatedAt.IsZero())
}

func TestAccountRepo_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestAccountRepo_GetByUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "shopper@example.com", "enc")
	require.NoError(t, err)

	acct, err := repo.GetByUsername(ctx, "shopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, acct.ID)

	_, err = repo.GetByUsername(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestAccountRepo_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, "shopper@example.com", "enc-1")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "shopper@example.com", "enc-2")
	assert.Error(t, err, "usernames are unique")
}

func TestAccountRepo_ListIDsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestAccountRepo_ListIDsOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, "a@example.com", "enc")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "b@example.com", "enc")
	require.NoError(t, err)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{first, second}, ids)
}

func TestAccountRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, "a@example.com", "enc-a")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "b@example.com", "enc-b")
	require.NoError(t, err)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a@example.com", accounts[0].Username)
	assert.Equal(t, "b@example.com", accounts[1].Username)
}

func TestAccountRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "shopper@example.com", "enc")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestAccountRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	err := repo.Delete(context.Background(), 12345)
	assert.NoError(t, err, "deleting a missing account should not error")
}

func TestAccountRepo_StoresCiphertextVerbatim(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, "shopper@example.com", "opaque ciphertext == untouched")
	require.NoError(t, err)

	var stored string
	err = db.Reader.QueryRowContext(ctx, `SELECT encrypted_password FROM accounts WHERE id = ?`, id).Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, "opaque ciphertext == untouched", stored)
}
