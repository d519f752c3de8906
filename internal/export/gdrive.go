package export

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveUploader mirrors visit notes into a Google Drive folder as Docs.
// Re-archiving the same consultation updates the existing file.
type DriveUploader struct {
	service  *drive.Service
	folderID string
	fileIDs  map[string]string
	mu       sync.Mutex
}

func NewDriveUploader(ctx context.Context, credPath, folderID string) (*DriveUploader, error) {
	creds, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.CredentialsFromJSONWithTypeAndParams(ctx, creds, google.ServiceAccount, google.CredentialsParams{Scopes: []string{drive.DriveFileScope}})
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithCredentials(config))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &DriveUploader{
		service:  svc,
		folderID: folderID,
		fileIDs:  make(map[string]string),
	}, nil
}

func (u *DriveUploader) Upload(consultationID, content string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	body := strings.NewReader(content)
	name := fmt.Sprintf("visit-note-%s", consultationID)

	if fileID, ok := u.fileIDs[consultationID]; ok {
		if _, err := u.service.Files.Update(fileID, &drive.File{}).Media(body).Do(); err != nil {
			return fmt.Errorf("drive update: %w", err)
		}
		return nil
	}

	doc, err := u.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.document",
		Parents:  []string{u.folderID},
	}).Media(body).Do()
	if err != nil {
		return fmt.Errorf("drive create: %w", err)
	}

	u.fileIDs[consultationID] = doc.Id
	return nil
}
