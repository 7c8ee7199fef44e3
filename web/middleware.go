package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Size limit constants
const (
	DefaultMaxBodySize       = 512 << 10 // 512 KB
	PreferencesMaxBodySize   = 16 << 10  // 16 KB
	OAuthCallbackMaxBodySize = 16 << 10  // 16 KB
)

// RequestSizeLimitMiddleware limits the size of request bodies
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// handleMaxBytesError writes 413 and returns true if err is due to the
// request body being too large.
func handleMaxBytesError(w http.ResponseWriter, r *http.Request, err error, maxBytes int64) bool {
	var maxBytesErr *http.MaxBytesError
	if !errors.As(err, &maxBytesErr) {
		return false
	}

	slog.Warn("Request body size limit exceeded",
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"method", r.Method,
		"path", r.URL.Path,
		"max_bytes", maxBytes,
		"max_human", formatBytes(maxBytes))

	writeJSONResponse(w, ErrorResponse{
		Error: "Request body exceeds maximum allowed size",
		Code:  "PAYLOAD_TOO_LARGE",
		Details: map[string]interface{}{
			"max_size_bytes": maxBytes,
			"max_size_human": formatBytes(maxBytes),
		},
	}, http.StatusRequestEntityTooLarge)
	return true
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeErrorResponse writes a JSON error response. msg is shown to the
// user as is, so it must never carry provider or store details.
func writeErrorResponse(w http.ResponseWriter, msg string, statusCode int) {
	writeJSONResponse(w, ErrorResponse{Error: msg}, statusCode)
}

func writeJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
