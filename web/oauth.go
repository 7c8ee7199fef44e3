package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

func (s *Server) oauth(r *mux.Router) {
	// Public routes with smaller body limit (16 KB)
	oauthRouter := r.PathPrefix("/api/").Subrouter()
	oauthRouter.Use(RequestSizeLimitMiddleware(OAuthCallbackMaxBodySize))
	oauthRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, map[string]bool{"ok": true}, http.StatusOK)
	}).Methods("GET")
	oauthRouter.HandleFunc("/glink", s.GoogleAccountLinkingHandler).Methods("GET")
	oauthRouter.HandleFunc("/signout", s.SignOutHandler).Methods("POST")
}

// GoogleAccountLinkingHandler completes the consent flow: it exchanges the
// authorization code, stores the credential and starts a session.
func (s *Server) GoogleAccountLinkingHandler(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if handleMaxBytesError(w, r, err, OAuthCallbackMaxBodySize) {
		return
	}
	if err != nil {
		slog.Error("Failed to parse OAuth form", "error", err)
		writeErrorResponse(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	redirectUri := r.FormValue("redirectUri")
	if redirectUri == "" {
		writeErrorResponse(w, "redirectUri not found in request", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(redirectUri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		slog.Error("Failed to parse redirect URI",
			"redirect_uri", redirectUri,
			"error", err)
		writeErrorResponse(w, "Invalid redirect URI", http.StatusBadRequest)
		return
	}
	code := r.FormValue("code")
	if code == "" {
		writeErrorResponse(w, "code not found in request", http.StatusBadRequest)
		return
	}

	token, err := s.google.Exchange(r.Context(), code, redirectUri)
	if err != nil || token.AccessToken == "" {
		slog.Warn("Access token could not be obtained", "error", err)
		writeErrorResponse(w, "Access token could not be obtained", http.StatusBadRequest)
		return
	}

	email, err := s.google.GetIdentity(r.Context(), token.AccessToken)
	if err != nil {
		slog.Error("Failed to get user identity", "error", err)
		writeErrorResponse(w, "Failed to verify account", http.StatusInternalServerError)
		return
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}
	name := getDisplayName(email)
	userId, err := s.store.SaveUserTokens(r.Context(), email, name, token.AccessToken, token.RefreshToken, expiresAt)
	if err != nil {
		slog.Error("Failed to save OAuth token",
			"email", email,
			"error", err)
		writeErrorResponse(w, "Failed to save account information", http.StatusInternalServerError)
		return
	}

	session, err := s.sessions.Create(email, name)
	if err != nil {
		slog.Error("Failed to create session", "email", email, "error", err)
		writeErrorResponse(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	s.sessions.Set(w, r, session)
	slog.Info("Linked Google account", "user_id", userId, "email", email, "has_refresh_token", token.RefreshToken != "")

	returnUrl := u.Scheme + "://" + u.Host + "/"
	w.Header().Set("Location", returnUrl)
	w.WriteHeader(http.StatusFound)
}

func (s *Server) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	writeJSONResponse(w, map[string]bool{"success": true}, http.StatusOK)
}

// getDisplayName masks the mailbox part of email, keeping its first three
// and last two characters.
func getDisplayName(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return email
	}
	username := email[:at]
	if len(username) < 6 {
		return email
	}
	return username[0:3] + "****" + username[len(username)-2:] + email[at:]
}
