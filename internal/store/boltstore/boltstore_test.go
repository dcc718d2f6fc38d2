package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodcircle/internal/models"
	"moodcircle/internal/store"
	"moodcircle/internal/store/storetest"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "moodcircle.db"))
	require.NoError(t, err)
	return s
}

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moodcircle.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	u := &models.User{Username: "alice", PasswordHash: "secret-hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	c := &models.Circle{Name: "Family", OwnerID: u.ID}
	_, err = s.CreateCircle(ctx, c)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret-hash", got.PasswordHash)

	members, err := s.ListCircleMembers(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleAdmin, members[0].Role)
}
