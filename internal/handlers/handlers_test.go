package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"friendsvc/internal/accounts"
	"friendsvc/internal/auth"
	"friendsvc/internal/friends"
	"friendsvc/internal/handlers"
	"friendsvc/internal/mail"
	"friendsvc/internal/memstore"
	"friendsvc/internal/passreset"
)

// fakeRevoker is an in-memory stand-in for the Redis token denylist.
type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[uuid.UUID]bool)}
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID uuid.UUID, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[tokenID], nil
}

// mailLog records enqueued reset mails so tests can read the OTP.
type mailLog struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (m *mailLog) Enqueue(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mailLog) lastCode(t *testing.T) int {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.msgs)
	return m.msgs[len(m.msgs)-1].Code
}

type testEnv struct {
	router http.Handler
	store  *memstore.Store
	mails  *mailLog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, friends.Config{})
}

func newTestEnvWithConfig(t *testing.T, cfg friends.Config) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	keys, err := auth.NewKeys()
	require.NoError(t, err)

	store := memstore.New()
	mails := &mailLog{}

	srv := handlers.NewServer(
		accounts.NewService(store),
		friends.NewService(store, cfg),
		passreset.NewService(store, mails, logger),
		keys,
		newFakeRevoker(),
		logger,
	)
	return &testEnv{router: srv.Router(), store: store, mails: mails}
}

// do performs a request and decodes the JSON envelope.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body=%s", w.Body.String())
	return w.Code, decoded
}

func phoneOf(t *testing.T, env *testEnv, id uuid.UUID) string {
	t.Helper()
	u, found, err := env.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	return u.Phone
}

var registerSeq int

// register creates an account over HTTP and returns its id and session token.
func (e *testEnv) register(t *testing.T, firstname string) (uuid.UUID, string) {
	t.Helper()
	registerSeq++

	code, body := e.do(t, http.MethodPost, "/register", "", map[string]any{
		"firstname":             firstname,
		"lastname":              "Tester",
		"email":                 fmt.Sprintf("%s%d@example.com", firstname, registerSeq),
		"phone":                 fmt.Sprintf("+1555%07d", registerSeq),
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(t, http.StatusCreated, code, "register body=%v", body)

	user := body["user"].(map[string]any)
	id, err := uuid.Parse(user["id"].(string))
	require.NoError(t, err)
	token := body["authorisation"].(map[string]any)["token"].(string)
	return id, token
}
