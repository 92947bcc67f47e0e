package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendsvc/internal/friends"
)

// TestFriendFlow walks the whole request/accept/list/remove cycle over HTTP.
func TestFriendFlow(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register(t, "alice")
	bobID, bobToken := env.register(t, "bob")

	// Alice sends Bob a request.
	code, body := env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, code, "body=%v", body)
	assert.Equal(t, "friend request sent", body["message"])
	assert.Equal(t, bobID.String(), body["user"].(map[string]any)["id"])

	// Neither side lists the other yet.
	code, body = env.do(t, http.MethodGet, "/my-friend-list", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "no friends are added", body["message"])
	assert.Empty(t, body["users"])

	// Bob accepts.
	code, body = env.do(t, http.MethodPost, "/accept-request/"+aliceID.String(), bobToken, nil)
	require.Equal(t, http.StatusOK, code, "body=%v", body)
	assert.Equal(t, "request accepted", body["message"])

	// Both lists now show the counterpart.
	code, body = env.do(t, http.MethodGet, "/my-friend-list", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, bobID.String(), users[0].(map[string]any)["id"])

	code, body = env.do(t, http.MethodGet, "/my-friend-list", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	users = body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, aliceID.String(), users[0].(map[string]any)["id"])

	// Bob unfriends Alice; removing again is still a success.
	code, _ = env.do(t, http.MethodPost, "/remove-friend/"+aliceID.String(), bobToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodPost, "/remove-friend/"+aliceID.String(), bobToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodGet, "/my-friend-list", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["users"])
}

func TestAddFriendErrors(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register(t, "alice")
	bobID, bobToken := env.register(t, "bob")

	// Self-reference.
	code, _ := env.do(t, http.MethodPost, "/add-friend/"+aliceID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Malformed id.
	code, _ = env.do(t, http.MethodPost, "/add-friend/not-a-uuid", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Unknown target.
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+uuid.NewString(), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Duplicate, from either side.
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+aliceID.String(), bobToken, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	aliceID, _ := env.register(t, "alice")
	_, bobToken := env.register(t, "bob")

	code, _ := env.do(t, http.MethodPost, "/accept-request/"+aliceID.String(), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register(t, "alice")
	bobID, bobToken := env.register(t, "bob")

	code, _ := env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, body := env.do(t, http.MethodPost, "/reject-request/"+aliceID.String(), bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "request rejected", body["message"])

	// Declined is terminal under the default policy.
	code, _ = env.do(t, http.MethodPost, "/accept-request/"+aliceID.String(), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestRerequestAllowedByPolicy(t *testing.T) {
	env := newTestEnvWithConfig(t, friends.Config{AllowRerequest: true})
	aliceID, aliceToken := env.register(t, "alice")
	bobID, bobToken := env.register(t, "bob")

	code, _ := env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, _ = env.do(t, http.MethodPost, "/reject-request/"+aliceID.String(), bobToken, nil)
	require.Equal(t, http.StatusOK, code)

	// With the allow policy the declined pair can be asked again.
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusCreated, code)
	code, _ = env.do(t, http.MethodPost, "/accept-request/"+aliceID.String(), bobToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.register(t, "alice")
	bobID, _ := env.register(t, "bob")
	carolID, _ := env.register(t, "carol")

	// Everyone but the caller shows up unfiltered.
	code, body := env.do(t, http.MethodGet, "/search-users", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total"])

	// Name filter.
	code, body = env.do(t, http.MethodGet, "/search-users?name=caro", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, carolID.String(), users[0].(map[string]any)["id"])

	// A pending edge hides the counterpart.
	code, _ = env.do(t, http.MethodPost, "/add-friend/"+bobID.String(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, code)
	code, body = env.do(t, http.MethodGet, "/search-users", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])

	// Empty result is a success with its own message.
	code, body = env.do(t, http.MethodGet, "/search-users?name=zebra", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "no users matched your search", body["message"])
	assert.Empty(t, body["users"])

	// Malformed filters are validation failures.
	code, _ = env.do(t, http.MethodGet, "/search-users?distance=abc", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodGet, "/search-users?page=0", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestViewAndUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.register(t, "alice")
	bobID, bobToken := env.register(t, "bob")

	// Anyone authenticated can view a profile.
	code, body := env.do(t, http.MethodGet, "/view-profile/"+aliceID.String(), bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["user"].(map[string]any)["firstname"])

	update := map[string]any{
		"firstname": "Alicia",
		"lastname":  "Tester",
		"email":     fmt.Sprintf("alicia%d@example.com", registerSeq),
		"phone":     "+15551230000",
		"address":   "1 Main St",
		"lat":       51.5,
		"long":      -0.12,
	}

	// Only the owner may update.
	code, _ = env.do(t, http.MethodPost, "/profile-update/"+aliceID.String(), bobToken, update)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = env.do(t, http.MethodPost, "/profile-update/"+aliceID.String(), aliceToken, update)
	require.Equal(t, http.StatusOK, code, "body=%v", body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Alicia", user["firstname"])
	assert.Equal(t, "1 Main St", user["address"])

	// Password responses never include the credential.
	_, hasPassword := user["password"]
	assert.False(t, hasPassword)

	// Updating onto someone else's phone conflicts.
	update["phone"] = phoneOf(t, env, bobID)
	code, _ = env.do(t, http.MethodPost, "/profile-update/"+aliceID.String(), aliceToken, update)
	assert.Equal(t, http.StatusConflict, code)
}
