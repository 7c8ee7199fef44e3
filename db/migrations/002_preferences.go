package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upPreferences, downPreferences)
}

const create_preferences_table string = `CREATE TABLE IF NOT EXISTS preferences (
	id serial PRIMARY KEY,
	user_id INT NOT NULL UNIQUE,
	file_type VARCHAR(20) NOT NULL,
	file_name_filter VARCHAR(500) NOT NULL DEFAULT '',
	date_from DATE NOT NULL,
	date_to DATE,
	gmail_folder VARCHAR(200) NOT NULL,
	drive_folder_id VARCHAR(200) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
	FOREIGN KEY (user_id)
		REFERENCES users (id)
)`

func upPreferences(tx *sql.Tx) error {
	_, err := tx.Exec(create_preferences_table)
	return err
}

func downPreferences(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS preferences`)
	return err
}
