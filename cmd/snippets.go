package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/snipx/internal/formatter"
	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/shared"
	"github.com/desertthunder/snipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

const listTimeLayout = "2006-01-02 15:04"

var origins = []string{"all", "guest", "mine", "shared"}

// SnippetsList prints the merged view, or one origin's list, from the API or the cache.
func (r *Runner) SnippetsList(ctx context.Context, cmd *cli.Command) error {
	origin := strings.ToLower(cmd.String("origin"))
	if !slices.Contains(origins, origin) {
		return fmt.Errorf("%w: --origin must be one of %s", shared.ErrInvalidFlag, strings.Join(origins, ", "))
	}

	var (
		list        []models.Snippet
		sharedCount int
		err         error
	)
	if cmd.Bool("offline") {
		list, err = r.cachedSnippets(origin)
		if err != nil {
			return err
		}
	} else {
		vm, err := r.loadViewModel(ctx, nil)
		if err != nil {
			return err
		}
		st := vm.Snapshot()
		switch origin {
		case "guest":
			list = st.Guest
		case "mine":
			list = st.User
		case "shared":
			list = st.Shared
		default:
			list = st.All
			sharedCount = len(st.Shared)
		}
	}

	if cmd.Bool("json") {
		if list == nil {
			list = []models.Snippet{}
		}
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("Snippets (%s): %d", origin, len(list)))
	if len(list) == 0 {
		r.writePlain("No snippets\n")
	}
	for _, s := range list {
		r.writeSnippetLine(s)
	}
	if sharedCount > 0 {
		r.writePlainln("%d snippet(s) shared with you; use --origin shared to list them", sharedCount)
	}
	return nil
}

// cachedSnippets reads origin's list from the cache. "all" merges guest and mine the way a live load does.
func (r *Runner) cachedSnippets(origin string) ([]models.Snippet, error) {
	if err := r.requireDB(); err != nil {
		return nil, err
	}
	if origin != "all" {
		return r.cache.List(models.Origin(origin))
	}

	guest, err := r.cache.List(models.OriginGuest)
	if err != nil {
		return nil, err
	}
	mine, err := r.cache.List(models.OriginMine)
	if err != nil {
		return nil, err
	}
	return models.Merge(guest, mine), nil
}

func (r *Runner) writeSnippetLine(s models.Snippet) {
	r.writePlain("%s  %-32s  %-10s  %s\n", s.ID, truncate(s.Title, 32), s.Language, s.CreatedAt.Local().Format(listTimeLayout))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// SnippetsShow prints one snippet highlighted for the terminal.
func (r *Runner) SnippetsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	vm, err := r.loadViewModel(ctx, nil)
	if err != nil {
		return err
	}
	s, ok := vm.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSnippetNotFound, id)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(s, true)
	case cmd.Bool("html"):
		return r.writePlain("%s\n", vm.Highlight(s))
	}

	r.writePlainHeader(s.Title)
	r.writePlain("%s • %s • %s\n\n", s.Language, highlight.Alias(s.Language), s.CreatedAt.Local().Format(listTimeLayout))
	r.writePlain("%s\n", r.highlighter.Terminal(s))
	return nil
}

// readForm overlays the form flags onto base. Unset flags keep base's values.
func readForm(cmd *cli.Command, base models.Form, stdin io.Reader) (models.Form, error) {
	form := base
	if cmd.IsSet("title") {
		form.Title = cmd.String("title")
	}

	code, file := cmd.String("code"), cmd.String("file")
	switch {
	case code != "" && file != "":
		return form, fmt.Errorf("%w: cannot specify both --code and --file", shared.ErrInvalidArgument)
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return form, fmt.Errorf("failed to read stdin: %w", err)
		}
		form.Code = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return form, fmt.Errorf("failed to read %s: %w", file, err)
		}
		form.Code = string(data)
	case cmd.IsSet("code"):
		form.Code = code
	}

	if cmd.IsSet("language") {
		lang, err := models.ParseLanguage(cmd.String("language"))
		if err != nil {
			return form, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		form.Language = lang
	}
	return form, nil
}

// SnippetsCreate creates a snippet from flags; with --share it is shared right after creation.
func (r *Runner) SnippetsCreate(ctx context.Context, cmd *cli.Command) error {
	vm, err := r.viewModel(nil, nil)
	if err != nil {
		return err
	}

	form, err := readForm(cmd, vm.Form(), os.Stdin)
	if err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	vm.SetForm(form)

	if recipients := cmd.StringSlice("share"); len(recipients) > 0 {
		if !r.session.Session().Active() {
			return fmt.Errorf("%w: sharing requires 'snipx auth login'", shared.ErrNotAuthenticated)
		}
		return vm.ShareExistingOrNew(ctx, recipients)
	}

	created, err := vm.Create(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("Created %s\n", created.ID)
}

// SnippetsUpdate edits an existing snippet; fields without a flag keep their current value.
func (r *Runner) SnippetsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	vm, err := r.loadViewModel(ctx, nil)
	if err != nil {
		return err
	}
	existing, ok := vm.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSnippetNotFound, id)
	}

	vm.StartEdit(existing)
	form, err := readForm(cmd, vm.Form(), os.Stdin)
	if err != nil {
		return err
	}
	vm.SetForm(form)
	return vm.Update(ctx, id)
}

// SnippetsDelete removes a snippet.
func (r *Runner) SnippetsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	vm, err := r.viewModel(nil, nil)
	if err != nil {
		return err
	}
	if err := vm.Remove(ctx, id); err != nil {
		return err
	}
	return r.writePlain("Deleted %s\n", id)
}

// SnippetsShare shares an existing snippet with --to recipients.
func (r *Runner) SnippetsShare(ctx context.Context, cmd *cli.Command) error {
	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if !r.session.Session().Active() {
		return fmt.Errorf("%w: sharing requires 'snipx auth login'", shared.ErrNotAuthenticated)
	}

	vm, err := r.loadViewModel(ctx, nil)
	if err != nil {
		return err
	}

	recipients := slices.Clone(cmd.StringSlice("to"))
	slices.Sort(recipients)
	recipients = slices.Compact(recipients)

	vm.OpenShare(id)
	for _, name := range recipients {
		if !vm.ToggleRecipient(name) {
			vm.CancelShare()
			return fmt.Errorf("%w: %q is not a user you can share with", shared.ErrInvalidArgument, name)
		}
	}
	return vm.SubmitShare(ctx)
}

// SnippetsLanguages prints the language enum.
func (r *Runner) SnippetsLanguages(ctx context.Context, cmd *cli.Command) error {
	var (
		langs []models.Language
		err   error
	)
	if cmd.Bool("offline") {
		if err := r.requireDB(); err != nil {
			return err
		}
		langs, err = r.languages.List()
	} else {
		langs, err = r.snippets.Languages(ctx)
		if err == nil && r.languages != nil {
			if cacheErr := r.languages.ReplaceAll(langs); cacheErr != nil {
				r.logger.Warn("failed to cache languages", "error", cacheErr)
			}
		}
	}
	if err != nil {
		return err
	}

	for _, l := range langs {
		r.writePlain("%-12s %s\n", l, highlight.Alias(l))
	}
	return nil
}

// SnippetsExport writes the merged view to a single file, or one file per snippet with --each.
func (r *Runner) SnippetsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var list []models.Snippet
	if cmd.Bool("offline") {
		if list, err = r.cachedSnippets("all"); err != nil {
			return err
		}
		if cmd.Bool("shared") {
			sharedList, err := r.cache.List(models.OriginShared)
			if err != nil {
				return err
			}
			list = append(list, sharedList...)
		}
	} else {
		vm, err := r.loadViewModel(ctx, nil)
		if err != nil {
			return err
		}
		st := vm.Snapshot()
		list = st.All
		if cmd.Bool("shared") {
			list = append(list, st.Shared...)
		}
	}

	if len(list) == 0 {
		return fmt.Errorf("%w: nothing to export", shared.ErrInvalidInput)
	}

	style := r.highlighter.Style()
	if cmd.Bool("each") {
		return r.exportEach(ctx, list, format, cmd.String("output"), cmd.Int("workers"), style)
	}

	export := formatter.NewExport("Snippets", r.session.Session().UserName, list)
	path, err := formatter.WriteExport(export, format, style, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("export written", "path", path, "snippets", len(list))
	return r.writePlain("✓ Exported %d snippets to %s\n", len(list), path)
}

func (r *Runner) exportEach(ctx context.Context, list []models.Snippet, format formatter.Format, dir string, workers int, style string) error {
	if dir == "" {
		dir = filepath.Join(".", fmt.Sprintf("snippets_export_%d", time.Now().Unix()))
	}

	progress := make(chan tasks.ProgressUpdate, len(list))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.ExportEach(ctx, progress, list, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  dir,
		NumWorkers: workers,
		Style:      style,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	m := result.Manifest
	r.writePlainln("✓ Exported %d/%d snippets to %s", m.Succeeded, m.Total, result.OutputDir)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if m.Failed > 0 {
		return fmt.Errorf("%d of %d snippets failed to export", m.Failed, m.Total)
	}
	return nil
}
