package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/constants"
	"github.com/jyothri/fetchflow/db"
	"github.com/jyothri/fetchflow/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	flags := cmd.Flags()
	flags.String("listen_addr", constants.DefaultListenAddr, "Address to listen on")
	flags.String("frontend_url", constants.DefaultFrontendUrl, "URL allowlisted for CORS")
	flags.String("oauth_client_id", "", "Google OAuth client id")
	flags.String("oauth_client_secret", "", "Google OAuth client secret")
	flags.String("session_secret", "", "Secret signing session tokens (random when empty)")
	flags.String("db.host", "localhost", "Postgres host")
	flags.Int("db.port", 5432, "Postgres port")
	flags.String("db.user", "postgres", "Postgres user")
	flags.String("db.password", "", "Postgres password")
	flags.String("db.name", "fetchflow", "Postgres database")
	flags.String("db.sslmode", "disable", "Postgres sslmode")

	for _, key := range []string{
		"listen_addr", "frontend_url", "oauth_client_id", "oauth_client_secret", "session_secret",
		"db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode",
	} {
		v.BindPFlag(key, flags.Lookup(key))
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := constants.FromViper(v)
	if cfg.OauthClientId == "" || cfg.OauthClientSecret == "" {
		return fmt.Errorf("oauth_client_id and oauth_client_secret must be configured")
	}
	if cfg.SessionSecret == "" {
		slog.Warn("session_secret is not set; sessions will not survive a restart")
	}

	store, err := db.SetupDatabase(db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	google := collect.NewGoogle(cfg.OauthClientId, cfg.OauthClientSecret)
	sessions := web.NewSessionManager(cfg.SessionSecret)
	server := web.NewServer(store, google, sessions, cfg.FrontendUrl)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx, cfg.ListenAddr)
}
