package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/snipx/internal/formatter"
	"github.com/desertthunder/snipx/internal/models"
	tu "github.com/desertthunder/snipx/internal/testing"
)

func TestExportEach(t *testing.T) {
	tests := []struct {
		name   string
		format formatter.Format
		count  int
		ext    string
	}{
		{name: "single markdown", format: formatter.FormatMarkdown, count: 1, ext: ".md"},
		{name: "several json", format: formatter.FormatJSON, count: 5, ext: ".json"},
		{name: "html", format: formatter.FormatHTML, count: 2, ext: ".html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			progress := make(chan ProgressUpdate, tt.count)

			result, err := ExportEach(context.Background(), progress, tu.SampleSnippets(tt.count), BulkExportOpts{
				Format:     tt.format,
				OutputDir:  dir,
				NumWorkers: 3,
			})
			if err != nil {
				t.Fatalf("ExportEach failed: %v", err)
			}
			close(progress)

			m := result.Manifest
			if m.Total != tt.count || m.Succeeded != tt.count || m.Failed != 0 {
				t.Errorf("unexpected counts %+v", m)
			}
			for i, e := range m.Entries {
				if e.ID != tu.SampleSnippets(tt.count)[i].ID {
					t.Errorf("entry %d out of order: %s", i, e.ID)
				}
				if !strings.HasSuffix(e.File, tt.ext) {
					t.Errorf("expected %s file, got %s", tt.ext, e.File)
				}
				if _, err := os.Stat(e.File); err != nil {
					t.Errorf("missing file %s", e.File)
				}
			}

			updates := 0
			for u := range progress {
				if u.Phase != ExportSnippets {
					t.Errorf("unexpected phase %s", u.Phase)
				}
				updates++
			}
			if updates != tt.count {
				t.Errorf("expected %d progress updates, got %d", tt.count, updates)
			}

			data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
			if err != nil {
				t.Fatalf("manifest not written: %v", err)
			}
			var decoded formatter.Manifest
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("invalid manifest: %v", err)
			}
			if decoded.Format != tt.format {
				t.Errorf("expected format %s, got %s", tt.format, decoded.Format)
			}
		})
	}

	t.Run("Defaults", func(t *testing.T) {
		dir := t.TempDir()
		result, err := ExportEach(context.Background(), nil, tu.SampleSnippets(1), BulkExportOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("ExportEach failed: %v", err)
		}
		if result.Manifest.Format != formatter.FormatMarkdown {
			t.Errorf("expected markdown default, got %s", result.Manifest.Format)
		}
		if result.ManifestPath != filepath.Join(dir, ManifestFile) {
			t.Errorf("unexpected manifest path %s", result.ManifestPath)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := ExportEach(ctx, nil, tu.SampleSnippets(3), BulkExportOpts{OutputDir: t.TempDir()})
		if err == nil {
			t.Fatal("expected context error")
		}
		if result == nil || result.Manifest.Failed != 3 {
			t.Errorf("expected every entry failed, got %+v", result)
		}
	})

	t.Run("Output Dir Is A File", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "taken")
		os.WriteFile(file, []byte("x"), 0644)

		if _, err := ExportEach(context.Background(), nil, tu.SampleSnippets(1), BulkExportOpts{OutputDir: file}); err == nil {
			t.Error("expected error creating output directory")
		}
	})
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		title string
		id    string
		want  string
	}{
		{title: "Hello, World!", id: "x", want: "001-hello-world.md"},
		{title: "  --  ", id: "abc", want: "001-abc.md"},
		{title: "", id: "", want: "001-snippet.md"},
		{title: "Ünïcode only ✓", id: "u", want: "001-n-code-only.md"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := exportFileName(0, models.Snippet{ID: tt.id, Title: tt.title}, formatter.FormatMarkdown)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
