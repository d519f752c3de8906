// Package export delivers finished visit notes: a markdown file on disk
// per consultation, optionally mirrored to a Google Drive folder. This is
// outbound note delivery only; consultation state itself stays in memory.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"consult-listener/internal/consultation"
)

type Notes struct {
	dir   string
	drive *DriveUploader
	mu    sync.Mutex
}

// NewNotes writes notes under dir. drive may be nil.
func NewNotes(dir string, drive *DriveUploader) *Notes {
	return &Notes{dir: dir, drive: drive}
}

func (n *Notes) Archive(consultationID string, c consultation.Consultation) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", n.dir, err)
	}

	content := FormatNote(consultationID, c, time.Now().UTC())
	path := filepath.Join(n.dir, consultationID+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if n.drive != nil {
		if err := n.drive.Upload(consultationID, content); err != nil {
			return fmt.Errorf("drive upload: %w", err)
		}
	}
	return nil
}

// FormatNote renders the shareable visit note. Sides that never produced a
// note are marked pending rather than omitted.
func FormatNote(consultationID string, c consultation.Consultation, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Visit note %s\n\n", consultationID)
	fmt.Fprintf(&b, "_Generated %s_\n\n", now.Format("2006-01-02 15:04"))

	b.WriteString("## Clinician note\n\n")
	b.WriteString(orPending(c.NotesForDoctor))
	b.WriteString("\n\n## Patient summary\n\n")
	b.WriteString(orPending(c.NotesForPatient))
	b.WriteString("\n")

	return b.String()
}

func orPending(note string) string {
	if strings.TrimSpace(note) == "" {
		return "_Not generated yet._"
	}
	return note
}
