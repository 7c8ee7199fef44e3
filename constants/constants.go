package constants

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FETCHFLOW"

	DefaultFrontendUrl = "http://localhost:5173"
	DefaultListenAddr  = ":8090"
	DefaultApiUrl      = "http://localhost:8090"

	// Created by the preferences screen when the user has no destination yet.
	DefaultDriveFolderName = "Gmail Attachments"
	DefaultLookbackDays    = 30
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Config struct {
	OauthClientId     string
	OauthClientSecret string
	FrontendUrl       string
	SessionSecret     string
	ListenAddr        string
	Database          DatabaseConfig

	// Used by the CLI subcommands that talk to a running server.
	ApiUrl  string
	Session string
}

// NewViper returns a viper instance reading FETCHFLOW_* environment
// variables, with nested keys such as db.host mapped to FETCHFLOW_DB_HOST.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("frontend_url", DefaultFrontendUrl)
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("api_url", DefaultApiUrl)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.name", "fetchflow")
	v.SetDefault("db.sslmode", "disable")

	// Deployments commonly export the Google client under these names.
	v.BindEnv("oauth_client_id", EnvPrefix+"_OAUTH_CLIENT_ID", "GOOGLE_CLIENT_ID")
	v.BindEnv("oauth_client_secret", EnvPrefix+"_OAUTH_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
}

func FromViper(v *viper.Viper) Config {
	return Config{
		OauthClientId:     v.GetString("oauth_client_id"),
		OauthClientSecret: v.GetString("oauth_client_secret"),
		FrontendUrl:       v.GetString("frontend_url"),
		SessionSecret:     v.GetString("session_secret"),
		ListenAddr:        v.GetString("listen_addr"),
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		ApiUrl:  v.GetString("api_url"),
		Session: v.GetString("session"),
	}
}
