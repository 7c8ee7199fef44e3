package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/constants"
	"github.com/jyothri/fetchflow/db"
	"github.com/jyothri/fetchflow/web"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

// PreferencesAPI is the part of the API the preferences screen uses.
// *Client implements it.
type PreferencesAPI interface {
	GetPreferences(ctx context.Context) (*db.Preferences, error)
	SavePreferences(ctx context.Context, req web.PreferencesRequest) (*db.Preferences, error)
	GmailFolders(ctx context.Context) ([]collect.GmailFolder, error)
	DriveFolders(ctx context.Context) ([]collect.DriveFolder, error)
	CreateDriveFolder(ctx context.Context, name string) (*collect.DriveFolder, error)
}

// PreferencesForm holds the current selection. Dates are YYYY-MM-DD.
type PreferencesForm struct {
	FileType       string
	FileNameFilter string
	DateFrom       string
	DateTo         string
	GmailFolder    string
	DriveFolderId  string
}

// ValidationError names the first missing required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate reports the first required selection that is missing.
func (f PreferencesForm) Validate() error {
	switch {
	case f.FileType == "":
		return &ValidationError{Field: "fileType", Message: "Please select a file type"}
	case f.DateFrom == "":
		return &ValidationError{Field: "dateFrom", Message: "Please select a start date"}
	case f.GmailFolder == "":
		return &ValidationError{Field: "gmailFolder", Message: "Please select a Gmail folder"}
	case f.DriveFolderId == "":
		return &ValidationError{Field: "driveFolderId", Message: "Please select a Google Drive folder"}
	}
	return nil
}

func (f PreferencesForm) request() web.PreferencesRequest {
	return web.PreferencesRequest{
		FileType:       f.FileType,
		FileNameFilter: f.FileNameFilter,
		DateFrom:       f.DateFrom,
		DateTo:         f.DateTo,
		GmailFolder:    f.GmailFolder,
		DriveFolderId:  f.DriveFolderId,
	}
}

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

// PreferencesStates is a snapshot of every load of the screen.
type PreferencesStates struct {
	Preferences    LoadState
	GmailFolders   LoadState
	DriveFolders   LoadState
	CreatingFolder LoadState
	Submitting     LoadState
}

// PreferencesController drives the preferences screen. Loads run
// concurrently; all state is guarded by mu.
type PreferencesController struct {
	api PreferencesAPI
	now func() time.Time

	mu           sync.Mutex
	form         PreferencesForm
	gmailFolders []collect.GmailFolder
	driveFolders []collect.DriveFolder
	states       PreferencesStates
	notices      []Notice
}

func NewPreferencesController(api PreferencesAPI, now func() time.Time) *PreferencesController {
	if now == nil {
		now = time.Now
	}
	return &PreferencesController{
		api:          api,
		now:          now,
		gmailFolders: []collect.GmailFolder{},
		driveFolders: []collect.DriveFolder{},
	}
}

// Mount defaults the start date to 30 days ago and loads the saved
// preferences and both folder lists concurrently. The preferences state
// resolves independently of the folder lists. The first load error is
// returned after all loads finished.
func (c *PreferencesController) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.form.DateFrom = c.now().AddDate(0, 0, -constants.DefaultLookbackDays).Format(dateLayout)
	c.states.Preferences = Loading
	c.states.GmailFolders = Loading
	c.states.DriveFolders = Loading
	c.mu.Unlock()

	var eg errgroup.Group
	eg.Go(func() error { return c.loadPreferences(ctx) })
	eg.Go(func() error { return c.loadGmailFolders(ctx) })
	eg.Go(func() error { return c.loadDriveFolders(ctx) })
	return eg.Wait()
}

// RefreshFolders reloads both folder lists and leaves the form alone.
func (c *PreferencesController) RefreshFolders(ctx context.Context) error {
	var eg errgroup.Group
	eg.Go(func() error { return c.loadGmailFolders(ctx) })
	eg.Go(func() error { return c.loadDriveFolders(ctx) })
	return eg.Wait()
}

func (c *PreferencesController) loadPreferences(ctx context.Context) error {
	c.setState(func(s *PreferencesStates) { s.Preferences = Loading })
	prefs, err := c.api.GetPreferences(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to load preferences", "error", err)
		c.states.Preferences = Failed
		c.addNotice(NoticeError, "Error", "Failed to load preferences")
		return err
	}
	if prefs != nil {
		c.form.FileType = prefs.FileType
		c.form.FileNameFilter = prefs.FileNameFilter
		c.form.DateFrom = prefs.DateFrom.Format(dateLayout)
		c.form.DateTo = ""
		if prefs.DateTo != nil {
			c.form.DateTo = prefs.DateTo.Format(dateLayout)
		}
		c.form.GmailFolder = prefs.GmailFolder
		c.form.DriveFolderId = prefs.DriveFolderId
	}
	c.states.Preferences = Loaded
	return nil
}

func (c *PreferencesController) loadGmailFolders(ctx context.Context) error {
	c.setState(func(s *PreferencesStates) { s.GmailFolders = Loading })
	folders, err := c.api.GmailFolders(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to load Gmail folders", "error", err)
		c.states.GmailFolders = Failed
		c.addNotice(NoticeError, "Error", errorMessage(err, "Failed to load Gmail folders"))
		return err
	}
	if folders == nil {
		folders = []collect.GmailFolder{}
	}
	c.gmailFolders = folders
	c.states.GmailFolders = Loaded
	return nil
}

func (c *PreferencesController) loadDriveFolders(ctx context.Context) error {
	c.setState(func(s *PreferencesStates) { s.DriveFolders = Loading })
	folders, err := c.api.DriveFolders(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to load Drive folders", "error", err)
		c.states.DriveFolders = Failed
		c.addNotice(NoticeError, "Error", errorMessage(err, "Failed to load Google Drive folders"))
		return err
	}
	if folders == nil {
		folders = []collect.DriveFolder{}
	}
	c.driveFolders = folders
	c.states.DriveFolders = Loaded
	return nil
}

// CreateAttachmentsFolder creates the default destination folder, selects
// it and reloads the Drive folder list.
func (c *PreferencesController) CreateAttachmentsFolder(ctx context.Context) error {
	c.setState(func(s *PreferencesStates) { s.CreatingFolder = Loading })
	folder, err := c.api.CreateDriveFolder(ctx, constants.DefaultDriveFolderName)

	c.mu.Lock()
	if err != nil {
		c.states.CreatingFolder = Failed
		c.addNotice(NoticeError, "Error", errorMessage(err, "Failed to create folder"))
		c.mu.Unlock()
		return err
	}
	c.form.DriveFolderId = folder.Id
	c.states.CreatingFolder = Loaded
	c.addNotice(NoticeSuccess, "Folder created", "Created \""+folder.Name+"\" in Google Drive")
	c.mu.Unlock()

	return c.loadDriveFolders(ctx)
}

// Submit validates the form and saves it. Nothing is sent when a required
// selection is missing.
func (c *PreferencesController) Submit(ctx context.Context) error {
	c.mu.Lock()
	form := c.form
	if err := form.Validate(); err != nil {
		c.addNotice(NoticeError, "Validation Error", err.Error())
		c.mu.Unlock()
		return err
	}
	c.states.Submitting = Loading
	c.mu.Unlock()

	_, err := c.api.SavePreferences(ctx, form.request())

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to save preferences", "error", err)
		c.states.Submitting = Failed
		c.addNotice(NoticeError, "Error", errorMessage(err, "Failed to save preferences"))
		return err
	}
	c.states.Submitting = Loaded
	c.addNotice(NoticeSuccess, "Success", "Preferences saved successfully")
	return nil
}

// Update applies fn to the form.
func (c *PreferencesController) Update(fn func(form *PreferencesForm)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.form)
}

func (c *PreferencesController) Form() PreferencesForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *PreferencesController) States() PreferencesStates {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states
}

// Loading reports whether the screen still waits for the saved preferences.
// Folder lists show their own progress.
func (c *PreferencesController) Loading() bool {
	return c.States().Preferences.InProgress()
}

// CanSubmit reports whether the submit button is enabled.
func (c *PreferencesController) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Validate() == nil && !c.states.Submitting.InProgress()
}

func (c *PreferencesController) GmailFolders() []collect.GmailFolder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]collect.GmailFolder(nil), c.gmailFolders...)
}

func (c *PreferencesController) DriveFolders() []collect.DriveFolder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]collect.DriveFolder(nil), c.driveFolders...)
}

// Notices returns and clears the pending notifications.
func (c *PreferencesController) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	notices := c.notices
	c.notices = nil
	return notices
}

func (c *PreferencesController) setState(fn func(s *PreferencesStates)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.states)
}

// addNotice requires mu.
func (c *PreferencesController) addNotice(kind NoticeKind, title string, message string) {
	c.notices = append(c.notices, Notice{Kind: kind, Title: title, Message: message})
}

// errorMessage prefers the server's message, which is safe to show.
func errorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
