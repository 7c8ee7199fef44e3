package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upLogs, downLogs)
}

func upLogs(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS logs (
			id serial PRIMARY KEY,
			user_id INT NOT NULL,
			file_name TEXT NOT NULL,
			file_type VARCHAR(20) NOT NULL DEFAULT '',
			status VARCHAR(50) NOT NULL,
			drive_file_id VARCHAR(200),
			drive_link TEXT,
			search_query TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
			FOREIGN KEY (user_id)
				REFERENCES users (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_user_created_at ON logs (user_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func downLogs(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS logs`)
	return err
}
