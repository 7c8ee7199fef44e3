package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/db"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeStore struct {
	mu           sync.Mutex
	users        map[string]*db.User
	prefs        map[int]db.Preferences
	logs         map[int][]db.LogEntry
	tokenUpdates int
	lastLogQuery db.LogQuery
	userErr      error
	logsErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]*db.User{},
		prefs: map[int]db.Preferences{},
		logs:  map[int][]db.LogEntry{},
	}
}

func (f *fakeStore) addUser(email string, access string, refresh string, expiresAt time.Time) *db.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &db.User{
		Id:             len(f.users) + 1,
		Email:          email,
		AccessToken:    sql.NullString{String: access, Valid: access != ""},
		RefreshToken:   sql.NullString{String: refresh, Valid: refresh != ""},
		TokenExpiresAt: sql.NullTime{Time: expiresAt, Valid: !expiresAt.IsZero()},
	}
	f.users[email] = user
	return user
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	user, ok := f.users[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) SaveUserTokens(ctx context.Context, email string, name string, accessToken string, refreshToken string, expiresAt time.Time) (int, error) {
	f.mu.Lock()
	user, ok := f.users[email]
	f.mu.Unlock()
	if !ok {
		user = f.addUser(email, accessToken, refreshToken, expiresAt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user.Name = name
	user.AccessToken = sql.NullString{String: accessToken, Valid: true}
	if refreshToken != "" {
		user.RefreshToken = sql.NullString{String: refreshToken, Valid: true}
	}
	user.TokenExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
	return user.Id, nil
}

func (f *fakeStore) UpdateUserTokens(ctx context.Context, email string, accessToken string, refreshToken string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenUpdates++
	user, ok := f.users[email]
	if !ok {
		return db.ErrNotFound
	}
	user.AccessToken = sql.NullString{String: accessToken, Valid: true}
	user.RefreshToken = sql.NullString{String: refreshToken, Valid: true}
	user.TokenExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
	return nil
}

func (f *fakeStore) GetPreferencesFromDb(ctx context.Context, userId int) (*db.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, ok := f.prefs[userId]
	if !ok {
		return nil, nil
	}
	return &prefs, nil
}

func (f *fakeStore) SavePreferences(ctx context.Context, prefs db.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs.UpdatedAt = time.Now()
	f.prefs[prefs.UserId] = prefs
	return nil
}

func (f *fakeStore) GetLogsFromDb(ctx context.Context, query db.LogQuery) ([]db.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogQuery = query
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	return f.logs[query.UserId], nil
}

// fakeGoogle answers the token endpoint and the few Gmail and Drive calls
// the handlers make.
type fakeGoogle struct {
	server      *httptest.Server
	tokenStatus int
	tokenBody   map[string]any
	labelsFail  bool
	tokenCalls  atomic.Int64
	apiCalls    atomic.Int64
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]any{"access_token": "new-access", "token_type": "Bearer", "expires_in": 3600},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGoogle) serveHTTP(w http.ResponseWriter, r *http.Request) {
	respond := func(status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
	if r.URL.Path == "/token" {
		f.tokenCalls.Add(1)
		respond(f.tokenStatus, f.tokenBody)
		return
	}

	f.apiCalls.Add(1)
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/users/me/profile"):
		respond(http.StatusOK, map[string]any{"emailAddress": "someone@example.com"})
	case strings.HasSuffix(path, "/users/me/labels"):
		if f.labelsFail {
			respond(http.StatusInternalServerError, map[string]any{"error": map[string]any{"code": 500, "message": "internal provider detail"}})
			return
		}
		respond(http.StatusOK, map[string]any{"labels": []map[string]any{
			{"id": "Label_1", "name": "Receipts"},
			{"id": "INBOX", "name": "INBOX"},
			{"id": "TRASH", "name": "TRASH"},
		}})
	case strings.Contains(path, "/users/me/labels/"):
		id := path[strings.LastIndex(path, "/")+1:]
		respond(http.StatusOK, map[string]any{"id": id, "name": id, "messagesTotal": 10})
	case strings.HasSuffix(path, "/files") && r.Method == http.MethodPost:
		var file map[string]any
		json.NewDecoder(r.Body).Decode(&file)
		respond(http.StatusOK, map[string]any{"id": "folder-1", "name": file["name"]})
	case strings.HasSuffix(path, "/files"):
		respond(http.StatusOK, map[string]any{"files": []map[string]any{{"id": "d1", "name": "Invoices"}}})
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	store    *fakeStore
	google   *fakeGoogle
	sessions *SessionManager
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	fake := newFakeGoogle(t)
	google := collect.NewGoogle("client-id", "client-secret",
		collect.WithTokenURL(fake.server.URL+"/token"),
		collect.WithAPIOptions(option.WithEndpoint(fake.server.URL+"/"), option.WithHTTPClient(fake.server.Client())),
	)
	sessions := NewSessionManager("test-secret")
	server := NewServer(store, google, sessions, "http://localhost:5173")
	return &testEnv{store: store, google: fake, sessions: sessions, handler: server.Handler()}
}

func (e *testEnv) do(t *testing.T, method string, path string, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if email != "" {
		token, err := e.sessions.Create(email, "")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	return resp.Error
}

var errStoreDown = errors.New("pq: connection refused")
