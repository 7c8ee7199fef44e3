package collect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/option"
)

type tokenUpdate struct {
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type fakeTokenStore struct {
	mu      sync.Mutex
	updates []tokenUpdate
	err     error
}

func (f *fakeTokenStore) UpdateUserTokens(ctx context.Context, email string, accessToken string, refreshToken string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, tokenUpdate{email, accessToken, refreshToken, expiresAt})
	return f.err
}

// fakeGoogle stands in for the token endpoint and the Gmail and Drive APIs.
type fakeGoogle struct {
	server *httptest.Server

	tokenStatus   int
	tokenResponse map[string]any
	tokenForms    []map[string]string

	labels      []map[string]any
	labelStatus map[string]int
	profileFail bool

	driveFiles  [][]map[string]any
	driveFail   bool
	createdName string

	apiCalls atomic.Int64
	mu       sync.Mutex
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{
		tokenStatus: http.StatusOK,
		labelStatus: map[string]int{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGoogle) google(opts ...Option) *Google {
	all := []Option{
		WithTokenURL(f.server.URL + "/token"),
		WithAPIOptions(option.WithEndpoint(f.server.URL+"/"), option.WithHTTPClient(f.server.Client())),
	}
	return NewGoogle("client-id", "client-secret", append(all, opts...)...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (f *fakeGoogle) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/token" {
		r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		f.mu.Lock()
		f.tokenForms = append(f.tokenForms, form)
		f.mu.Unlock()
		writeJSON(w, f.tokenStatus, f.tokenResponse)
		return
	}

	f.apiCalls.Add(1)
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/users/me/profile"):
		if f.profileFail {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]any{"code": 403, "message": "forbidden"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"emailAddress": "user@example.com", "messagesTotal": 10})
	case strings.HasSuffix(path, "/users/me/labels"):
		list := []map[string]any{}
		for _, l := range f.labels {
			list = append(list, map[string]any{"id": l["id"], "name": l["name"]})
		}
		writeJSON(w, http.StatusOK, map[string]any{"labels": list})
	case strings.Contains(path, "/users/me/labels/"):
		id := path[strings.LastIndex(path, "/")+1:]
		if status, ok := f.labelStatus[id]; ok {
			writeJSON(w, status, map[string]any{"error": map[string]any{"code": status, "message": "label failure"}})
			return
		}
		for _, l := range f.labels {
			if l["id"] == id {
				writeJSON(w, http.StatusOK, l)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "not found"}})
	case strings.HasSuffix(path, "/files") && r.Method == http.MethodPost:
		var file map[string]any
		json.NewDecoder(r.Body).Decode(&file)
		name, _ := file["name"].(string)
		f.mu.Lock()
		f.createdName = name
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"id":           "new-folder",
			"name":         name,
			"createdTime":  "2024-01-01T00:00:00Z",
			"modifiedTime": "2024-01-01T00:00:00Z",
		})
	case strings.HasSuffix(path, "/files"):
		if f.driveFail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]any{"code": 500, "message": "boom"}})
			return
		}
		page := 0
		if token := r.URL.Query().Get("pageToken"); token != "" {
			page = int(token[0] - '0')
		}
		body := map[string]any{"files": []map[string]any{}}
		if page < len(f.driveFiles) {
			body["files"] = f.driveFiles[page]
		}
		if page+1 < len(f.driveFiles) {
			body["nextPageToken"] = string(rune('0' + page + 1))
		}
		writeJSON(w, http.StatusOK, body)
	default:
		http.NotFound(w, r)
	}
}
