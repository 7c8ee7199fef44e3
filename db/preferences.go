package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetPreferencesFromDb returns nil without error when the user has not
// saved preferences yet.
func (s *Store) GetPreferencesFromDb(ctx context.Context, userId int) (*Preferences, error) {
	read_row := `select user_id, file_type, file_name_filter, date_from, date_to,
		gmail_folder, drive_folder_id, updated_at
		FROM preferences
		WHERE user_id = $1`
	var prefs Preferences
	err := s.db.GetContext(ctx, &prefs, read_row, userId)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences for user %d: %w", userId, err)
	}
	return &prefs, nil
}

// SavePreferences replaces the whole record of prefs.UserId.
func (s *Store) SavePreferences(ctx context.Context, prefs Preferences) error {
	upsert_row := `insert into preferences
			(user_id, file_type, file_name_filter, date_from, date_to, gmail_folder, drive_folder_id,
				created_at, updated_at)
		values
			($1, $2, $3, $4, $5, $6, $7, current_timestamp, current_timestamp)
		ON CONFLICT (user_id) DO UPDATE SET
			file_type = EXCLUDED.file_type,
			file_name_filter = EXCLUDED.file_name_filter,
			date_from = EXCLUDED.date_from,
			date_to = EXCLUDED.date_to,
			gmail_folder = EXCLUDED.gmail_folder,
			drive_folder_id = EXCLUDED.drive_folder_id,
			updated_at = current_timestamp`
	_, err := s.db.ExecContext(ctx, upsert_row, prefs.UserId, prefs.FileType, prefs.FileNameFilter,
		prefs.DateFrom, prefs.DateTo, prefs.GmailFolder, prefs.DriveFolderId)
	if err != nil {
		return fmt.Errorf("failed to save preferences for user %d: %w", prefs.UserId, err)
	}
	return nil
}
