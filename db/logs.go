package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaxLogRows caps every logs query.
const MaxLogRows = 50

const dateLayout = "2006-01-02"

// EndOfDay returns the last millisecond of the given YYYY-MM-DD day in UTC.
func EndOfDay(date string) (time.Time, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return time.Parse(time.RFC3339Nano, date+"T23:59:59.999Z")
}

func buildLogsQuery(query LogQuery) (string, []any, error) {
	conditions := []string{"user_id = $1"}
	args := []any{query.UserId}

	if query.DateTo != "" {
		dateToEnd, err := EndOfDay(query.DateTo)
		if err != nil {
			return "", nil, err
		}
		args = append(args, dateToEnd)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	args = append(args, MaxLogRows)
	read_row := fmt.Sprintf(`select id, user_id, file_name, file_type, status, drive_file_id,
		drive_link, search_query, created_at
		FROM logs
		WHERE %s
		order by created_at desc limit $%d`, strings.Join(conditions, " AND "), len(args))
	return read_row, args, nil
}

// GetLogsFromDb returns the newest MaxLogRows attempts of a user, never nil.
func (s *Store) GetLogsFromDb(ctx context.Context, query LogQuery) ([]LogEntry, error) {
	read_row, args, err := buildLogsQuery(query)
	if err != nil {
		return nil, err
	}
	logs := []LogEntry{}
	err = s.db.SelectContext(ctx, &logs, read_row, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for user %d: %w", query.UserId, err)
	}
	return logs, nil
}

// SaveLog records one attempt. Used by the export worker; a zero CreatedAt
// means now.
func (s *Store) SaveLog(ctx context.Context, entry LogEntry) (int, error) {
	insert_row := `insert into logs
			(user_id, file_name, file_type, status, drive_file_id, drive_link, search_query, created_at)
		values
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, current_timestamp)) RETURNING id`
	var createdAt *time.Time
	if !entry.CreatedAt.IsZero() {
		t := entry.CreatedAt.UTC()
		createdAt = &t
	}
	lastInsertId := 0
	err := s.db.QueryRowContext(ctx, insert_row, entry.UserId, entry.FileName, entry.FileType, entry.Status,
		entry.DriveFileId, entry.DriveLink, entry.SearchQuery, createdAt).Scan(&lastInsertId)
	if err != nil {
		return 0, fmt.Errorf("failed to save log for user %d (file=%s): %w", entry.UserId, entry.FileName, err)
	}
	return lastInsertId, nil
}
