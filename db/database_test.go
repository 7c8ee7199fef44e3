package db

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestStore starts Postgres in a container. Integration tests only run
// when TEST_INTEGRATION is set.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("fetchflow_test"),
		postgres.WithUsername("fetchflow"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	store, err := SetupDatabase(Config{
		Host:     host,
		Port:     portNum,
		User:     "fetchflow",
		Password: "test-password",
		Name:     "fetchflow_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserTokens(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	expiry := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	userId, err := store.SaveUserTokens(ctx, "a@x.com", "A", "access-1", "refresh-1", expiry)
	require.NoError(t, err)
	assert.NotZero(t, userId)

	user, err := store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, userId, user.Id)
	assert.Equal(t, "access-1", user.AccessToken.String)
	assert.Equal(t, "refresh-1", user.RefreshToken.String)
	assert.True(t, user.TokenExpiresAt.Time.Equal(expiry))

	// Signing in again without a refresh token keeps the stored one.
	sameId, err := store.SaveUserTokens(ctx, "a@x.com", "", "access-2", "", expiry)
	require.NoError(t, err)
	assert.Equal(t, userId, sameId)
	user, err = store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "access-2", user.AccessToken.String)
	assert.Equal(t, "refresh-1", user.RefreshToken.String)
	assert.Equal(t, "A", user.Name)

	newExpiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateUserTokens(ctx, "a@x.com", "access-3", "refresh-1", newExpiry))
	user, err = store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "access-3", user.AccessToken.String)
	assert.True(t, user.TokenExpiresAt.Time.Equal(newExpiry))
	assert.False(t, user.UpdatedAt.Before(user.CreatedAt))

	err = store.UpdateUserTokens(ctx, "nobody@x.com", "a", "r", newExpiry)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreferencesUpsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	userId, err := store.SaveUserTokens(ctx, "p@x.com", "P", "access", "refresh", time.Now())
	require.NoError(t, err)

	prefs, err := store.GetPreferencesFromDb(ctx, userId)
	require.NoError(t, err)
	assert.Nil(t, prefs)

	dateTo := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	first := Preferences{
		UserId:         userId,
		FileType:       "pdf",
		FileNameFilter: "invoice",
		DateFrom:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:         &dateTo,
		GmailFolder:    "INBOX",
		DriveFolderId:  "drive-1",
	}
	require.NoError(t, store.SavePreferences(ctx, first))

	second := Preferences{
		UserId:        userId,
		FileType:      "xlsx",
		DateFrom:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		GmailFolder:   "Label_12",
		DriveFolderId: "drive-2",
	}
	require.NoError(t, store.SavePreferences(ctx, second))

	prefs, err = store.GetPreferencesFromDb(ctx, userId)
	require.NoError(t, err)
	require.NotNil(t, prefs)
	assert.Equal(t, "xlsx", prefs.FileType)
	assert.Equal(t, "", prefs.FileNameFilter)
	assert.Equal(t, "2024-03-01", prefs.DateFrom.Format(dateLayout))
	assert.Nil(t, prefs.DateTo)
	assert.Equal(t, "Label_12", prefs.GmailFolder)
	assert.Equal(t, "drive-2", prefs.DriveFolderId)
}

func TestGetLogsFromDb(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	userId, err := store.SaveUserTokens(ctx, "l@x.com", "L", "access", "refresh", time.Now())
	require.NoError(t, err)
	otherId, err := store.SaveUserTokens(ctx, "o@x.com", "O", "access", "refresh", time.Now())
	require.NoError(t, err)

	logs, err := store.GetLogsFromDb(ctx, LogQuery{UserId: userId})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)

	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		_, err := store.SaveLog(ctx, LogEntry{
			UserId:    userId,
			FileName:  fmt.Sprintf("file-%03d.pdf", i),
			FileType:  "pdf",
			Status:    "success",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err = store.SaveLog(ctx, LogEntry{UserId: otherId, FileName: "other.pdf", Status: "success"})
	require.NoError(t, err)

	logs, err = store.GetLogsFromDb(ctx, LogQuery{UserId: userId})
	require.NoError(t, err)
	require.Len(t, logs, MaxLogRows)
	for i := 1; i < len(logs); i++ {
		assert.True(t, logs[i-1].CreatedAt.After(logs[i].CreatedAt), "logs must be newest first")
	}
	assert.Equal(t, "file-199.pdf", logs[0].FileName)
	for _, l := range logs {
		assert.Equal(t, userId, l.UserId)
	}
}

func TestGetLogsFromDb_DateTo(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	userId, err := store.SaveUserTokens(ctx, "d@x.com", "D", "access", "refresh", time.Now())
	require.NoError(t, err)

	link := "https://drive.google.com/file/d/abc/view"
	entries := []LogEntry{
		{UserId: userId, FileName: "noon.pdf", Status: "success", DriveLink: &link,
			CreatedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)},
		{UserId: userId, FileName: "late.pdf", Status: "failed",
			CreatedAt: time.Date(2024, 1, 15, 23, 59, 59, 999_000_000, time.UTC)},
		{UserId: userId, FileName: "next.pdf", Status: "success",
			CreatedAt: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		_, err := store.SaveLog(ctx, e)
		require.NoError(t, err)
	}

	logs, err := store.GetLogsFromDb(ctx, LogQuery{UserId: userId, DateTo: "2024-01-15"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "late.pdf", logs[0].FileName)
	assert.Equal(t, "noon.pdf", logs[1].FileName)
	require.NotNil(t, logs[1].DriveLink)
	assert.Equal(t, link, *logs[1].DriveLink)
	assert.Nil(t, logs[0].DriveLink)
}
