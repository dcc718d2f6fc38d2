// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Journals", func(t *testing.T) { testJournals(t, newStore(t)) })
	t.Run("JournalSharing", func(t *testing.T) { testJournalSharing(t, newStore(t)) })
	t.Run("Circles", func(t *testing.T) { testCircles(t, newStore(t)) })
	t.Run("Membership", func(t *testing.T) { testMembership(t, newStore(t)) })
}

func createUser(t *testing.T, s store.Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "hash-" + username}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func testUsers(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	alice := createUser(t, s, "alice")

	got, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hash-alice", got.PasswordHash)

	got, err = s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	err = s.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, s.Ping(ctx))
}

func testJournals(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	created := time.Now().UTC().Truncate(time.Second)
	j := &models.Journal{
		UserID:    alice.ID,
		Title:     "Trip",
		Content:   "We drove to the coast.",
		Category:  "Travel",
		Mood:      models.MoodJoyful,
		MoodColor: models.MoodJoyful.Color(),
		IsPublic:  true,
		CreatedAt: created,
	}
	require.NoError(t, s.CreateJournal(ctx, j))
	require.NotZero(t, j.ID)

	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, "Trip", got.Title)
	assert.Equal(t, "We drove to the coast.", got.Content)
	assert.Equal(t, "Travel", got.Category)
	assert.Equal(t, models.MoodJoyful, got.Mood)
	assert.Equal(t, "#FFD700", got.MoodColor)
	assert.True(t, got.IsPublic)
	assert.Nil(t, got.SharedWithCircleID)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)

	require.NoError(t, s.CreateJournal(ctx, &models.Journal{
		UserID: bob.ID, Title: "Work", Content: "Long day", Category: "Work",
		Mood: models.MoodSad, MoodColor: models.MoodSad.Color(), CreatedAt: created,
	}))

	all, err := s.ListJournals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := s.ListJournalsByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Work", own[0].Title)

	none, err := s.ListJournalsByUser(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.GetJournal(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.CreateJournal(ctx, &models.Journal{UserID: 9999, Title: "x", Content: "x", Category: "x", Mood: models.MoodNeutral, CreatedAt: created})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testJournalSharing(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	circle := &models.Circle{Name: "Family", OwnerID: alice.ID}
	_, err := s.CreateCircle(ctx, circle)
	require.NoError(t, err)

	j := &models.Journal{UserID: alice.ID, Title: "t", Content: "c", Category: "Personal", Mood: models.MoodNeutral, MoodColor: "#808080", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateJournal(ctx, j))

	updated, err := s.UpdateJournalSharing(ctx, j.ID, &circle.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.SharedWithCircleID)
	assert.Equal(t, circle.ID, *updated.SharedWithCircleID)

	got, err := s.GetJournal(ctx, j.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SharedWithCircleID)
	assert.Equal(t, circle.ID, *got.SharedWithCircleID)

	updated, err = s.UpdateJournalSharing(ctx, j.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.SharedWithCircleID)

	_, err = s.UpdateJournalSharing(ctx, 9999, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testCircles(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	family := &models.Circle{Name: "Family", OwnerID: alice.ID, Description: "close ones"}
	admin, err := s.CreateCircle(ctx, family)
	require.NoError(t, err)
	require.NotZero(t, family.ID)
	assert.Equal(t, family.ID, admin.CircleID)
	assert.Equal(t, alice.ID, admin.UserID)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	members, err := s.ListCircleMembers(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, alice.ID, members[0].UserID)
	assert.Equal(t, models.RoleAdmin, members[0].Role)
	assert.Equal(t, "alice", members[0].Username)

	got, err := s.GetCircle(ctx, family.ID)
	require.NoError(t, err)
	assert.Equal(t, "Family", got.Name)
	assert.Equal(t, "close ones", got.Description)
	assert.Equal(t, alice.ID, got.OwnerID)

	_, err = s.GetCircle(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	work := &models.Circle{Name: "Work", OwnerID: bob.ID}
	_, err = s.CreateCircle(ctx, work)
	require.NoError(t, err)
	require.NoError(t, s.AddCircleMember(ctx, &models.CircleMember{CircleID: work.ID, UserID: alice.ID, Role: models.RoleMember}))

	circles, err := s.ListCirclesForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, circles, 2)
	assert.ElementsMatch(t, []int{family.ID, work.ID}, []int{circles[0].ID, circles[1].ID})

	circles, err = s.ListCirclesForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, circles, 1)
	assert.Equal(t, work.ID, circles[0].ID)
}

func testMembership(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	circle := &models.Circle{Name: "Family", OwnerID: alice.ID}
	_, err := s.CreateCircle(ctx, circle)
	require.NoError(t, err)

	ok, err := s.IsCircleMember(ctx, circle.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	m := &models.CircleMember{CircleID: circle.ID, UserID: bob.ID, Role: models.RoleMember}
	require.NoError(t, s.AddCircleMember(ctx, m))
	assert.NotZero(t, m.ID)
	assert.Equal(t, "bob", m.Username)

	ok, err = s.IsCircleMember(ctx, circle.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.AddCircleMember(ctx, &models.CircleMember{CircleID: circle.ID, UserID: bob.ID, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, store.ErrConflict)

	err = s.AddCircleMember(ctx, &models.CircleMember{CircleID: 9999, UserID: bob.ID, Role: models.RoleMember})
	assert.ErrorIs(t, err, store.ErrNotFound)

	members, err := s.ListCircleMembers(ctx, circle.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, s.RemoveCircleMember(ctx, circle.ID, bob.ID))
	ok, err = s.IsCircleMember(ctx, circle.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent membership changes nothing.
	require.NoError(t, s.RemoveCircleMember(ctx, circle.ID, bob.ID))
	members, err = s.ListCircleMembers(ctx, circle.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
