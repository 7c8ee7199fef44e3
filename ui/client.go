package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/db"
	"github.com/jyothri/fetchflow/web"
)

// APIError is a non-2xx answer of the server. Message is the server's
// user facing error text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client calls the fetchflow HTTP API with a session token.
type Client struct {
	baseURL string
	session string
	client  *http.Client
}

func NewClient(baseURL string, session string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body any, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.Header.Set("Authorization", "Bearer "+c.session)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		var errResp web.ErrorResponse
		if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetPreferences returns nil when nothing was saved yet.
func (c *Client) GetPreferences(ctx context.Context) (*db.Preferences, error) {
	var resp web.PreferencesResponse
	if err := c.do(ctx, http.MethodGet, "/api/preferences", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) SavePreferences(ctx context.Context, req web.PreferencesRequest) (*db.Preferences, error) {
	var resp web.SavePreferencesResponse
	if err := c.do(ctx, http.MethodPost, "/api/preferences", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GmailFolders(ctx context.Context) ([]collect.GmailFolder, error) {
	var resp web.GmailFoldersResponse
	if err := c.do(ctx, http.MethodGet, "/api/gmail-folders", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

func (c *Client) DriveFolders(ctx context.Context) ([]collect.DriveFolder, error) {
	var resp web.DriveFoldersResponse
	if err := c.do(ctx, http.MethodGet, "/api/drive-folders", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

func (c *Client) CreateDriveFolder(ctx context.Context, name string) (*collect.DriveFolder, error) {
	var resp web.CreateDriveFolderResponse
	err := c.do(ctx, http.MethodPost, "/api/create-drive-folder", nil, web.CreateDriveFolderRequest{FolderName: name}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Folder, nil
}

// Logs returns at most the newest 50 attempts, optionally up to and
// including the day dateTo (YYYY-MM-DD).
func (c *Client) Logs(ctx context.Context, dateTo string) ([]db.LogEntry, error) {
	query := url.Values{}
	if dateTo != "" {
		query.Set("date_to", dateTo)
	}
	var resp web.LogsResponse
	if err := c.do(ctx, http.MethodGet, "/api/logs", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []db.LogEntry{}
	}
	return resp.Data, nil
}
