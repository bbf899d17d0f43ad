package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/snipx/internal/shared"
)

// ManifestEntry records the outcome of exporting one snippet.
type ManifestEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Manifest summarizes a one-file-per-snippet export.
type Manifest struct {
	Format      Format          `json:"format"`
	GeneratedAt time.Time       `json:"generated_at"`
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Entries     []ManifestEntry `json:"entries"`
}

// Add appends an entry for id, counting it as failed when err is non-nil.
func (m *Manifest) Add(id, title, file string, err error) {
	entry := ManifestEntry{ID: id, Title: title, Status: "success", File: file}
	if err != nil {
		entry.Status = "failed"
		entry.File = ""
		entry.Error = err.Error()
		m.Failed++
	} else {
		m.Succeeded++
	}
	m.Entries = append(m.Entries, entry)
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
