package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/constants"
	"github.com/jyothri/fetchflow/db"
)

const (
	gmailFoldersFailedMsg      = "Failed to fetch Gmail folders. Please try again."
	driveFoldersFailedMsg      = "Failed to fetch Drive folders. Please try again."
	createDriveFolderFailedMsg = "Failed to create Drive folder. Please try again."
	preferencesFailedMsg       = "Failed to fetch preferences"
	savePreferencesFailedMsg   = "Failed to save preferences"
	logsFailedMsg              = "Failed to fetch logs"

	noAccessTokenMsg = "No access token found. Please sign out and sign in again to reconnect your Gmail account."
	tokenExpiredMsg  = "Token expired. Please sign out and sign in again."
	refreshFailedMsg = "Token expired and refresh failed. Please sign out and sign in again."

	maxFolderNameLength = 255
	dateLayout          = "2006-01-02"
)

func (s *Server) api(r *mux.Router) {
	api := r.PathPrefix("/api/").Subrouter()
	api.Use(s.sessions.RequireSession)
	api.Use(RequestSizeLimitMiddleware(DefaultMaxBodySize))
	api.HandleFunc("/gmail-folders", s.GmailFoldersHandler).Methods("GET")
	api.HandleFunc("/drive-folders", s.DriveFoldersHandler).Methods("GET")
	api.HandleFunc("/create-drive-folder", s.CreateDriveFolderHandler).Methods("POST")
	api.HandleFunc("/preferences", s.GetPreferencesHandler).Methods("GET")
	api.Handle("/preferences", RequestSizeLimitMiddleware(PreferencesMaxBodySize)(http.HandlerFunc(s.SavePreferencesHandler))).Methods("POST")
	api.HandleFunc("/logs", s.ListLogsHandler).Methods("GET")
}

// lookupUser resolves the user row behind the session. On failure it has
// already written the response and returns nil.
func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request, notFoundStatus int, notFoundMsg string, failureMsg string) *db.User {
	email := sessionEmail(r)
	user, err := s.store.GetUserByEmail(r.Context(), email)
	if errors.Is(err, db.ErrNotFound) {
		slog.Warn("User not found for session", "email", email, "path", r.URL.Path)
		writeErrorResponse(w, notFoundMsg, notFoundStatus)
		return nil
	}
	if err != nil {
		slog.Error("Failed to get user", "email", email, "error", err)
		writeErrorResponse(w, failureMsg, http.StatusInternalServerError)
		return nil
	}
	return user
}

// resolveAccessToken returns a usable access token for user, refreshing it
// once when expired. On failure it has already written a 401.
func (s *Server) resolveAccessToken(w http.ResponseWriter, r *http.Request, user *db.User) (string, bool) {
	accessToken, err := s.google.AccessToken(r.Context(), s.store, user)
	switch {
	case err == nil:
		credentialResolutions.WithLabelValues("ok").Inc()
		return accessToken, true
	case errors.Is(err, collect.ErrNoAccessToken):
		credentialResolutions.WithLabelValues("missing").Inc()
		slog.Warn("No access token stored", "email", user.Email)
		writeErrorResponse(w, noAccessTokenMsg, http.StatusUnauthorized)
	case errors.Is(err, collect.ErrTokenExpired):
		credentialResolutions.WithLabelValues("expired").Inc()
		slog.Warn("Access token expired and no refresh token stored", "email", user.Email)
		writeErrorResponse(w, tokenExpiredMsg, http.StatusUnauthorized)
	default:
		credentialResolutions.WithLabelValues("refresh_failed").Inc()
		slog.Error("Failed to refresh access token", "email", user.Email, "error", err)
		writeErrorResponse(w, refreshFailedMsg, http.StatusUnauthorized)
	}
	return "", false
}

func (s *Server) GmailFoldersHandler(w http.ResponseWriter, r *http.Request) {
	user := s.lookupUser(w, r, http.StatusBadRequest, "User not found. Please sign in again.", gmailFoldersFailedMsg)
	if user == nil {
		return
	}
	accessToken, ok := s.resolveAccessToken(w, r, user)
	if !ok {
		return
	}

	folders, err := s.google.ListGmailFolders(r.Context(), accessToken)
	if err != nil {
		slog.Error("Failed to fetch Gmail folders", "email", user.Email, "error", err)
		writeErrorResponse(w, gmailFoldersFailedMsg, http.StatusInternalServerError)
		return
	}

	slog.Info("Listed Gmail folders", "email", user.Email, "count", len(folders))
	writeJSONResponse(w, GmailFoldersResponse{
		Success:      true,
		Folders:      folders,
		TotalFolders: len(folders),
	}, http.StatusOK)
}

func (s *Server) DriveFoldersHandler(w http.ResponseWriter, r *http.Request) {
	user := s.lookupUser(w, r, http.StatusNotFound, "User not found", driveFoldersFailedMsg)
	if user == nil {
		return
	}
	accessToken, ok := s.resolveAccessToken(w, r, user)
	if !ok {
		return
	}

	folders, err := s.google.ListDriveFolders(r.Context(), accessToken)
	if err != nil {
		slog.Error("Failed to fetch Drive folders", "email", user.Email, "error", err)
		writeErrorResponse(w, driveFoldersFailedMsg, http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, DriveFoldersResponse{Folders: folders}, http.StatusOK)
}

func (s *Server) CreateDriveFolderHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateDriveFolderRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if handleMaxBytesError(w, r, err, DefaultMaxBodySize) {
		return
	}
	if err != nil {
		slog.Error("Failed to decode create folder request", "error", err)
		writeErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.FolderName)
	if name == "" {
		writeErrorResponse(w, "Folder name is required", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(name) > maxFolderNameLength {
		writeErrorResponse(w, "Folder name must be at most 255 characters", http.StatusBadRequest)
		return
	}

	user := s.lookupUser(w, r, http.StatusNotFound, "User not found", createDriveFolderFailedMsg)
	if user == nil {
		return
	}
	accessToken, ok := s.resolveAccessToken(w, r, user)
	if !ok {
		return
	}

	folder, err := s.google.CreateDriveFolder(r.Context(), accessToken, name)
	if err != nil {
		slog.Error("Failed to create Drive folder", "email", user.Email, "name", name, "error", err)
		writeErrorResponse(w, createDriveFolderFailedMsg, http.StatusInternalServerError)
		return
	}
	slog.Info("Created Drive folder", "email", user.Email, "folder_id", folder.Id)
	writeJSONResponse(w, CreateDriveFolderResponse{Folder: *folder}, http.StatusOK)
}

func (s *Server) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user := s.lookupUser(w, r, http.StatusNotFound, "User not found", preferencesFailedMsg)
	if user == nil {
		return
	}
	prefs, err := s.store.GetPreferencesFromDb(r.Context(), user.Id)
	if err != nil {
		slog.Error("Failed to get preferences", "user_id", user.Id, "error", err)
		writeErrorResponse(w, preferencesFailedMsg, http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, PreferencesResponse{Data: prefs}, http.StatusOK)
}

func (s *Server) SavePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if handleMaxBytesError(w, r, err, PreferencesMaxBodySize) {
		return
	}
	if err != nil {
		slog.Error("Failed to decode preferences request", "error", err)
		writeErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user := s.lookupUser(w, r, http.StatusNotFound, "User not found", savePreferencesFailedMsg)
	if user == nil {
		return
	}
	prefs, msg := req.toPreferences(user.Id)
	if msg != "" {
		writeErrorResponse(w, msg, http.StatusBadRequest)
		return
	}

	if err := s.store.SavePreferences(r.Context(), prefs); err != nil {
		slog.Error("Failed to save preferences", "user_id", user.Id, "error", err)
		writeErrorResponse(w, savePreferencesFailedMsg, http.StatusInternalServerError)
		return
	}
	saved, err := s.store.GetPreferencesFromDb(r.Context(), user.Id)
	if err != nil || saved == nil {
		slog.Error("Failed to read back saved preferences", "user_id", user.Id, "error", err)
		writeErrorResponse(w, savePreferencesFailedMsg, http.StatusInternalServerError)
		return
	}
	slog.Info("Saved preferences", "user_id", user.Id, "file_type", saved.FileType, "gmail_folder", saved.GmailFolder)
	writeJSONResponse(w, SavePreferencesResponse{Success: true, Data: saved}, http.StatusOK)
}

func (s *Server) ListLogsHandler(w http.ResponseWriter, r *http.Request) {
	dateTo := r.URL.Query().Get("date_to")
	if dateTo != "" {
		if _, err := db.EndOfDay(dateTo); err != nil {
			writeErrorResponse(w, "Invalid date_to. Expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	user := s.lookupUser(w, r, http.StatusNotFound, "User not found", logsFailedMsg)
	if user == nil {
		return
	}
	logs, err := s.store.GetLogsFromDb(r.Context(), db.LogQuery{UserId: user.Id, DateTo: dateTo})
	if err != nil {
		slog.Error("Failed to get logs", "user_id", user.Id, "date_to", dateTo, "error", err)
		writeErrorResponse(w, logsFailedMsg, http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []db.LogEntry{}
	}
	writeJSONResponse(w, LogsResponse{Data: logs}, http.StatusOK)
}

// toPreferences validates req. A non-empty message is a user facing
// validation error.
func (req PreferencesRequest) toPreferences(userId int) (db.Preferences, string) {
	if req.FileType == "" {
		return db.Preferences{}, "File type is required"
	}
	if !constants.IsFileType(req.FileType) {
		return db.Preferences{}, "Unsupported file type"
	}
	if req.DateFrom == "" {
		return db.Preferences{}, "Start date is required"
	}
	dateFrom, err := time.Parse(dateLayout, req.DateFrom)
	if err != nil {
		return db.Preferences{}, "Start date must be in YYYY-MM-DD format"
	}
	if req.GmailFolder == "" {
		return db.Preferences{}, "Gmail folder is required"
	}
	if req.DriveFolderId == "" {
		return db.Preferences{}, "Google Drive folder is required"
	}

	prefs := db.Preferences{
		UserId:         userId,
		FileType:       req.FileType,
		FileNameFilter: strings.TrimSpace(req.FileNameFilter),
		DateFrom:       dateFrom,
		GmailFolder:    req.GmailFolder,
		DriveFolderId:  req.DriveFolderId,
	}
	if req.DateTo != "" {
		dateTo, err := time.Parse(dateLayout, req.DateTo)
		if err != nil {
			return db.Preferences{}, "End date must be in YYYY-MM-DD format"
		}
		if dateTo.Before(dateFrom) {
			return db.Preferences{}, "End date must not be before start date"
		}
		prefs.DateTo = &dateTo
	}
	return prefs, ""
}
