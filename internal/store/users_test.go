package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-backend/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateUser(ctx, "u1", "alice@example.com", "Alice", "digest")
	require.NoError(t, err)
	assert.Equal(t, "u1", created.UserID)
	assert.NotEmpty(t, created.CreatedAt)

	t.Run("by id", func(t *testing.T) {
		user, err := st.GetUserByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "digest", user.PasswordHash)
	})

	t.Run("by email", func(t *testing.T) {
		user, err := st.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "u1", user.UserID)
	})
}

func TestGetUserByEmailAbsent(t *testing.T) {
	st, _ := newTestStore(t)

	// Absence is not an error: the caller distinguishes "no such email" from
	// a failed lookup.
	user, err := st.GetUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetUserByIDNotFound(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.GetUserByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
