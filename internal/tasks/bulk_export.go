package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/snipx/internal/formatter"
	"github.com/desertthunder/snipx/internal/models"
)

// ManifestFile is the name of the manifest written next to exported files.
const ManifestFile = "export_manifest.json"

// BulkExportOpts contains configuration for one-file-per-snippet exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format for each file
	OutputDir  string           // Base output directory (default: snippets_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, max 8)
	Style      string           // chroma style for HTML output
}

// BulkExportResult contains the manifest and where it was written.
type BulkExportResult struct {
	Manifest     *formatter.Manifest
	OutputDir    string
	ManifestPath string
}

type exportJob struct {
	index   int
	snippet models.Snippet
}

type exportOutcome struct {
	index int
	file  string
	err   error
}

// ExportEach writes every snippet to its own file in opts.OutputDir and records a manifest.
//
// Failures of individual files are recorded in the manifest and do not stop the export.
// Manifest entries keep the order of snippets.
func ExportEach(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	snippets []models.Snippet,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("snippets_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := make(chan exportJob, len(snippets))
	outcomes := make(chan exportOutcome, len(snippets))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, outcomes, opts)
	}

	for i, s := range snippets {
		jobs <- exportJob{index: i, snippet: s}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	files := make([]exportOutcome, len(snippets))
	for i := range files {
		files[i] = exportOutcome{index: i, err: context.Canceled}
	}

	completed := 0
	for out := range outcomes {
		completed++
		files[out.index] = out
		title := snippets[out.index].Title
		if out.err != nil {
			sendProgress(prog, exportFailedUpdate(completed, len(snippets), title, out.err))
		} else {
			sendProgress(prog, exportCompletedUpdate(completed, len(snippets), title, out.file))
		}
	}

	manifest := &formatter.Manifest{
		Format:      opts.Format,
		GeneratedAt: time.Now().UTC(),
		Total:       len(snippets),
	}
	for i, out := range files {
		manifest.Add(snippets[i].ID, snippets[i].Title, out.file, out.err)
	}

	result := &BulkExportResult{Manifest: manifest, OutputDir: opts.OutputDir}
	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	outcomes chan<- exportOutcome,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s := job.snippet
		path := filepath.Join(opts.OutputDir, exportFileName(job.index, s, opts.Format))
		export := &formatter.Export{Title: s.Title, GeneratedAt: time.Now().UTC(), Snippets: []models.Snippet{s}}

		file, err := formatter.WriteExport(export, opts.Format, opts.Style, path)
		outcomes <- exportOutcome{index: job.index, file: file, err: err}
	}
}

// exportFileName builds "{n}-{slug}.{ext}", falling back to the id when the title has no usable characters.
func exportFileName(index int, s models.Snippet, f formatter.Format) string {
	slug := slugify(s.Title)
	if slug == "" {
		slug = s.ID
	}
	if slug == "" {
		slug = "snippet"
	}
	return fmt.Sprintf("%03d-%s.%s", index+1, slug, f.Ext())
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 48 {
		slug = strings.TrimSuffix(slug[:48], "-")
	}
	return slug
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
