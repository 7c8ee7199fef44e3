package db

import (
	"database/sql"
	"time"
)

type User struct {
	Id             int            `db:"id"`
	Email          string         `db:"email"`
	Name           string         `db:"name"`
	AccessToken    sql.NullString `db:"access_token"`
	RefreshToken   sql.NullString `db:"refresh_token"`
	TokenExpiresAt sql.NullTime   `db:"token_expires_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Preferences is the saved export filter of one user. Dates are calendar
// days; the time part is always midnight UTC.
type Preferences struct {
	UserId         int        `db:"user_id" json:"-"`
	FileType       string     `db:"file_type" json:"file_type"`
	FileNameFilter string     `db:"file_name_filter" json:"file_name_filter"`
	DateFrom       time.Time  `db:"date_from" json:"date_from"`
	DateTo         *time.Time `db:"date_to" json:"date_to"`
	GmailFolder    string     `db:"gmail_folder" json:"gmail_folder"`
	DriveFolderId  string     `db:"drive_folder_id" json:"drive_folder_id"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// LogEntry is one download/upload attempt recorded by the export worker.
type LogEntry struct {
	Id          int       `db:"id" json:"id"`
	UserId      int       `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	FileType    string    `db:"file_type" json:"file_type"`
	Status      string    `db:"status" json:"status"`
	DriveFileId *string   `db:"drive_file_id" json:"drive_file_id"`
	DriveLink   *string   `db:"drive_link" json:"drive_link"`
	SearchQuery *string   `db:"search_query" json:"search_query"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const StatusSuccess = "success"

// Succeeded reports whether the attempt finished successfully. Every
// status other than "success" is treated as a failure.
func (l LogEntry) Succeeded() bool {
	return l.Status == StatusSuccess
}

type LogQuery struct {
	UserId int
	// DateTo is an optional YYYY-MM-DD upper bound, inclusive of the whole day.
	DateTo string
}
