package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/db"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Store is the persistence the HTTP API needs. *db.Store implements it.
type Store interface {
	collect.TokenStore
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	SaveUserTokens(ctx context.Context, email string, name string, accessToken string, refreshToken string, expiresAt time.Time) (int, error)
	GetPreferencesFromDb(ctx context.Context, userId int) (*db.Preferences, error)
	SavePreferences(ctx context.Context, prefs db.Preferences) error
	GetLogsFromDb(ctx context.Context, query db.LogQuery) ([]db.LogEntry, error)
}

type Server struct {
	store       Store
	google      *collect.Google
	sessions    *SessionManager
	frontendUrl string
}

func NewServer(store Store, google *collect.Google, sessions *SessionManager, frontendUrl string) *Server {
	return &Server{
		store:       store,
		google:      google,
		sessions:    sessions,
		frontendUrl: frontendUrl,
	}
}

// Handler returns the routed API wrapped in CORS for the frontend.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.oauth(r)
	s.api(r)
	cors := cors.New(cors.Options{
		AllowedOrigins:   []string{s.frontendUrl},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return cors.Handler(r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	slog.Info("Starting web server.", "addr", addr)
	srv := &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
		// Folder listing fans out to one Gmail call per label.
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down web server.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
