package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const FolderMimeType = "application/vnd.google-apps.folder"

// List of fields to be retreived on folder resources from the drive API.
var fields []string = []string{"id", "name", "parents", "createdTime", "modifiedTime"}
var paginationFields []string = []string{"nextPageToken"}

const pageSize = 1000

var folderQuery = fmt.Sprintf("mimeType='%s' and trashed=false", FolderMimeType)

type DriveFolder struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	Parents      []string `json:"parents,omitempty"`
	CreatedTime  string   `json:"createdTime"`
	ModifiedTime string   `json:"modifiedTime"`
}

func (g *Google) getDriveService(ctx context.Context, accessToken string) (*drive.Service, error) {
	driveService, err := drive.NewService(ctx, g.clientOptions(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return driveService, nil
}

// ListDriveFolders returns every non-trashed folder, most recently modified
// first.
func (g *Google) ListDriveFolders(ctx context.Context, accessToken string) ([]DriveFolder, error) {
	driveService, err := g.getDriveService(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	filesListCall := driveService.Files.List().
		PageSize(pageSize).
		Q(folderQuery).
		OrderBy("modifiedTime desc").
		Fields(googleapi.Field(strings.Join(append(addPrefix(fields, "files/"), paginationFields...), ",")))

	folders := []DriveFolder{}
	hasNextPage := true
	for hasNextPage {
		fileList, err := filesListCall.Context(ctx).Do()
		if err != nil {
			logProviderError("Failed to list Drive folders", err)
			return nil, fmt.Errorf("failed to list drive folders: %w", err)
		}
		for _, file := range fileList.Files {
			folders = append(folders, convertToDriveFolder(file))
		}
		if fileList.NextPageToken == "" {
			hasNextPage = false
		}
		filesListCall = filesListCall.PageToken(fileList.NextPageToken)
	}
	return folders, nil
}

// CreateDriveFolder creates name at the Drive root.
func (g *Google) CreateDriveFolder(ctx context.Context, accessToken string, name string) (*DriveFolder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("folder name is empty")
	}
	driveService, err := g.getDriveService(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	file, err := driveService.Files.Create(&drive.File{
		Name:     name,
		MimeType: FolderMimeType,
	}).Fields(googleapi.Field(strings.Join(fields, ","))).Context(ctx).Do()
	if err != nil {
		logProviderError("Failed to create Drive folder", err, "name", name)
		return nil, fmt.Errorf("failed to create drive folder %q: %w", name, err)
	}
	folder := convertToDriveFolder(file)
	return &folder, nil
}

func convertToDriveFolder(file *drive.File) DriveFolder {
	return DriveFolder{
		Id:           file.Id,
		Name:         file.Name,
		Parents:      file.Parents,
		CreatedTime:  file.CreatedTime,
		ModifiedTime: file.ModifiedTime,
	}
}
