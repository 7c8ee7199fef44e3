package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upUsers, downUsers)
}

const create_users_table string = `CREATE TABLE IF NOT EXISTS users (
	id serial PRIMARY KEY,
	email VARCHAR(320) NOT NULL UNIQUE,
	name VARCHAR(200),
	access_token VARCHAR(2048),
	refresh_token VARCHAR(2048),
	token_expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
)`

func upUsers(tx *sql.Tx) error {
	_, err := tx.Exec(create_users_table)
	return err
}

func downUsers(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS users`)
	return err
}
