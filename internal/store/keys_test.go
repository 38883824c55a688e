package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-backend/internal/store"
)

func TestKeyConstruction(t *testing.T) {
	t.Run("user profile", func(t *testing.T) {
		key, err := store.UserProfileKey("u1")
		require.NoError(t, err)
		assert.Equal(t, "USER#u1", key.PK)
		assert.Equal(t, "PROFILE", key.SK)
	})

	t.Run("project metadata", func(t *testing.T) {
		key, err := store.ProjectMetadataKey("p1")
		require.NoError(t, err)
		assert.Equal(t, "PROJECT#p1", key.PK)
		assert.Equal(t, "METADATA", key.SK)
	})

	t.Run("project member", func(t *testing.T) {
		key, err := store.ProjectMemberKey("p1", "u1")
		require.NoError(t, err)
		assert.Equal(t, "PROJECT#p1", key.PK)
		assert.Equal(t, "MEMBER#u1", key.SK)
	})

	t.Run("user project relation", func(t *testing.T) {
		key, err := store.UserProjectKey("u1", "p1")
		require.NoError(t, err)
		assert.Equal(t, "USER#u1", key.PK)
		assert.Equal(t, "PROJECT#p1", key.SK)
	})

	t.Run("task", func(t *testing.T) {
		key, err := store.TaskKey("p1", "t1")
		require.NoError(t, err)
		assert.Equal(t, "PROJECT#p1", key.PK)
		assert.Equal(t, "TASK#t1", key.SK)
	})
}

func TestKeyConstructionIsDeterministic(t *testing.T) {
	a, err := store.TaskKey("p1", "t1")
	require.NoError(t, err)
	b, err := store.TaskKey("p1", "t1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKeysDoNotCollideAcrossKinds(t *testing.T) {
	// The same raw id under different kinds must map to distinct items.
	profile, err := store.UserProfileKey("x")
	require.NoError(t, err)
	metadata, err := store.ProjectMetadataKey("x")
	require.NoError(t, err)
	member, err := store.ProjectMemberKey("x", "x")
	require.NoError(t, err)
	relation, err := store.UserProjectKey("x", "x")
	require.NoError(t, err)
	task, err := store.TaskKey("x", "x")
	require.NoError(t, err)

	seen := map[store.ItemKey]bool{}
	for _, key := range []store.ItemKey{profile, metadata, member, relation, task} {
		assert.False(t, seen[key], "duplicate key %+v", key)
		seen[key] = true
	}
}

func TestKeyConstructionRejectsEmptyIdentifiers(t *testing.T) {
	cases := []struct {
		name string
		fn   func() (store.ItemKey, error)
	}{
		{"user profile", func() (store.ItemKey, error) { return store.UserProfileKey("") }},
		{"project metadata", func() (store.ItemKey, error) { return store.ProjectMetadataKey("") }},
		{"member empty project", func() (store.ItemKey, error) { return store.ProjectMemberKey("", "u1") }},
		{"member empty user", func() (store.ItemKey, error) { return store.ProjectMemberKey("p1", "") }},
		{"relation empty user", func() (store.ItemKey, error) { return store.UserProjectKey("", "p1") }},
		{"relation empty project", func() (store.ItemKey, error) { return store.UserProjectKey("u1", "") }},
		{"task empty project", func() (store.ItemKey, error) { return store.TaskKey("", "t1") }},
		{"task empty task", func() (store.ItemKey, error) { return store.TaskKey("p1", "") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fn()
			assert.ErrorIs(t, err, store.ErrEmptyIdentifier)
		})
	}
}
