package web

import (
	"github.com/jyothri/fetchflow/collect"
	"github.com/jyothri/fetchflow/db"
)

type GmailFoldersResponse struct {
	Success      bool                  `json:"success"`
	Folders      []collect.GmailFolder `json:"folders"`
	TotalFolders int                   `json:"totalFolders"`
}

type DriveFoldersResponse struct {
	Folders []collect.DriveFolder `json:"folders"`
}

type CreateDriveFolderRequest struct {
	FolderName string `json:"folderName"`
}

type CreateDriveFolderResponse struct {
	Folder collect.DriveFolder `json:"folder"`
}

type PreferencesRequest struct {
	FileType       string `json:"fileType"`
	FileNameFilter string `json:"fileNameFilter"`
	DateFrom       string `json:"dateFrom"`
	DateTo         string `json:"dateTo"`
	GmailFolder    string `json:"gmailFolder"`
	DriveFolderId  string `json:"driveFolderId"`
}

// PreferencesResponse carries a null data when nothing was saved yet.
type PreferencesResponse struct {
	Data *db.Preferences `json:"data"`
}

type SavePreferencesResponse struct {
	Success bool            `json:"success"`
	Data    *db.Preferences `json:"data"`
}

type LogsResponse struct {
	Data []db.LogEntry `json:"data"`
}
