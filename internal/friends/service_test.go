package friends_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendsvc/internal/friends"
	"friendsvc/internal/memstore"
	"friendsvc/internal/models"
)

func newService(t *testing.T, cfg friends.Config) (*friends.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return friends.NewService(store, cfg), store
}

var phoneSeq int

func addUser(t *testing.T, store *memstore.Store, firstname string) models.User {
	t.Helper()
	phoneSeq++
	u := models.User{
		ID:        uuid.New(),
		Firstname: firstname,
		Lastname:  "Tester",
		Email:     firstname + "@example.com",
		Phone:     fmt.Sprintf("+1555%07d", phoneSeq),
	}
	require.NoError(t, store.Insert(context.Background(), &u))
	return u
}

func TestRequestCreatesSinglePendingEdge(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID))

	// The edge is visible from both directions and records who asked.
	edge, found, err := svc.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, alice.ID, edge.RequesterID)
	assert.Equal(t, bob.ID, edge.RecipientID)
	assert.Equal(t, models.StatusPending, edge.Status)

	reversed, found, err := svc.Status(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, edge, reversed)

	// A second request in either direction conflicts.
	assert.ErrorIs(t, svc.Request(ctx, alice.ID, bob.ID), friends.ErrDuplicateEdge)
	assert.ErrorIs(t, svc.Request(ctx, bob.ID, alice.ID), friends.ErrDuplicateEdge)
}

func TestRequestSelfReference(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")

	assert.ErrorIs(t, svc.Request(ctx, alice.ID, alice.ID), friends.ErrSelfReference)
}

func TestRequestUnknownTarget(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")

	assert.ErrorIs(t, svc.Request(ctx, alice.ID, uuid.New()), friends.ErrUnknownTarget)
}

func TestAcceptFlow(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Accept(ctx, bob.ID, alice.ID))

	edge, found, err := svc.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusAccepted, edge.Status)

	aliceFriends, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, bob.ID, aliceFriends[0].ID)

	bobFriends, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, alice.ID, bobFriends[0].ID)
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	assert.ErrorIs(t, svc.Accept(ctx, bob.ID, alice.ID), friends.ErrNoPendingRequest)
}

func TestDeclinedIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Reject(ctx, bob.ID, alice.ID))

	// The settled edge cannot be accepted, re-rejected, or re-requested.
	assert.ErrorIs(t, svc.Accept(ctx, bob.ID, alice.ID), friends.ErrNoPendingRequest)
	assert.ErrorIs(t, svc.Reject(ctx, bob.ID, alice.ID), friends.ErrNoPendingRequest)
	assert.ErrorIs(t, svc.Request(ctx, alice.ID, bob.ID), friends.ErrDuplicateEdge)
}

func TestAcceptedCannotBeRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Accept(ctx, bob.ID, alice.ID))

	assert.ErrorIs(t, svc.Reject(ctx, bob.ID, alice.ID), friends.ErrNoPendingRequest)
}

func TestRerequestPolicyAllow(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{AllowRerequest: true})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Reject(ctx, bob.ID, alice.ID))

	// Bob can reopen the declined edge; it flips back to pending with bob as
	// the requester.
	require.NoError(t, svc.Request(ctx, bob.ID, alice.ID))
	edge, found, err := svc.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusPending, edge.Status)
	assert.Equal(t, bob.ID, edge.RequesterID)

	// Pending and accepted edges still conflict even under the allow policy.
	assert.ErrorIs(t, svc.Request(ctx, alice.ID, bob.ID), friends.ErrDuplicateEdge)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	// Removing a nonexistent edge succeeds.
	require.NoError(t, svc.Remove(ctx, alice.ID, bob.ID))

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Accept(ctx, bob.ID, alice.ID))
	require.NoError(t, svc.Remove(ctx, bob.ID, alice.ID))

	_, found, err := svc.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, found)

	// After removal a new request is possible again.
	require.NoError(t, svc.Request(ctx, bob.ID, alice.ID))
}

func TestListExcludesUnsettledEdges(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	carol := addUser(t, store, "carol")
	dave := addUser(t, store, "dave")

	require.NoError(t, svc.Request(ctx, alice.ID, bob.ID)) // stays pending
	require.NoError(t, svc.Request(ctx, alice.ID, carol.ID))
	require.NoError(t, svc.Reject(ctx, carol.ID, alice.ID)) // declined
	require.NoError(t, svc.Request(ctx, dave.ID, alice.ID))
	require.NoError(t, svc.Accept(ctx, alice.ID, dave.ID)) // accepted

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dave.ID, list[0].ID)
}

func TestListEmptyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, friends.Config{})
	alice := addUser(t, store, "alice")

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
