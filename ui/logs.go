package ui

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/jyothri/fetchflow/db"
)

type LogsAPI interface {
	Logs(ctx context.Context, dateTo string) ([]db.LogEntry, error)
}

// LogsController drives the download history screen. The search term
// filters the loaded page locally and never triggers a new query.
type LogsController struct {
	api LogsAPI

	mu     sync.Mutex
	state  LoadState
	logs   []db.LogEntry
	search string
	err    error
}

func NewLogsController(api LogsAPI) *LogsController {
	return &LogsController{api: api, logs: []db.LogEntry{}}
}

// Load fetches the newest attempts, up to and including dateTo when set.
func (c *LogsController) Load(ctx context.Context, dateTo string) error {
	c.mu.Lock()
	c.state = Loading
	c.mu.Unlock()

	logs, err := c.api.Logs(ctx, dateTo)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to load logs", "date_to", dateTo, "error", err)
		c.state = Failed
		c.err = err
		return err
	}
	if logs == nil {
		logs = []db.LogEntry{}
	}
	c.logs = logs
	c.err = nil
	c.state = Loaded
	return nil
}

func (c *LogsController) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
}

// Visible returns the loaded entries whose file name contains the search
// term, ignoring case.
func (c *LogsController) Visible() []db.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(c.search))
	visible := []db.LogEntry{}
	for _, entry := range c.logs {
		if term == "" || strings.Contains(strings.ToLower(entry.FileName), term) {
			visible = append(visible, entry)
		}
	}
	return visible
}

// Total is the number of loaded entries regardless of the search term.
func (c *LogsController) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.logs)
}

func (c *LogsController) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error of the last failed load.
func (c *LogsController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// StatusVariant maps a log status to its badge style.
func StatusVariant(status string) string {
	if status == db.StatusSuccess {
		return VariantDefault
	}
	return VariantDestructive
}
