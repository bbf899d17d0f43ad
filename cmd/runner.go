package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snipx/internal/highlight"
	"github.com/desertthunder/snipx/internal/repositories"
	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/session"
	"github.com/desertthunder/snipx/internal/shared"
	"github.com/desertthunder/snipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	snippets    services.SnippetAPI
	api         *services.APIService
	httpClient  *http.Client
	db          *sql.DB
	storage     session.Storage
	session     *session.Store
	cache       *repositories.SnippetCacheRepository
	languages   *repositories.LanguageRepository
	highlighter *highlight.Highlighter
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Snippets   services.SnippetAPI
	API        *services.APIService
	HTTPClient *http.Client
	DB         *sql.DB // migrated database; nil keeps the session in memory and disables the cache
	Storage    session.Storage
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Snippets == nil {
		svcOpts := services.OptionsFromConfig(opts.Config.Server)
		svcOpts.HTTPClient = opts.HTTPClient
		opts.Snippets = services.NewSnippetService(svcOpts)
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Server.BaseURL, opts.HTTPClient)
	}

	r := &Runner{
		config:     opts.Config,
		snippets:   opts.Snippets,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		db:         opts.DB,
		storage:    opts.Storage,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if opts.DB != nil {
		r.cache = repositories.NewSnippetCacheRepository(opts.DB)
		r.languages = repositories.NewLanguageRepository(opts.DB)
		if r.storage == nil {
			r.storage = repositories.NewStorageRepository(opts.DB)
		}
	}
	if r.storage == nil {
		r.logger.Warn("no database; session will not persist between runs")
		r.storage = session.NewMemoryStorage()
	}
	r.session = session.NewStore(r.storage, r.snippets, r.logger)

	h, err := highlight.New(opts.Config.UI.Style, highlight.DefaultCacheSize)
	if err != nil {
		r.logger.Warn("failed to create highlighter, using defaults", "style", opts.Config.UI.Style, "error", err)
		h, _ = highlight.New("", highlight.DefaultCacheSize)
	}
	r.highlighter = h

	return r
}

// SetLogger swaps the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.session = session.NewStore(r.storage, r.snippets, logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, snippetsCommand, apiCommand, cacheCommand, previewCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// viewModel builds a [tasks.ViewModel] over the runner's API, session and cache.
//
// A nil alerter prints alerts to the runner's output.
func (r *Runner) viewModel(alerter tasks.Alerter, progress chan<- tasks.ProgressUpdate) (*tasks.ViewModel, error) {
	if alerter == nil {
		alerter = tasks.AlertFunc(func(msg string) { r.writePlain("%s\n", msg) })
	}

	opts := tasks.Options{
		API:      r.snippets,
		Session:  r.session,
		Alerter:  alerter,
		Renderer: r.highlighter,
		Logger:   r.logger,
		Progress: progress,
	}
	if r.cache != nil {
		opts.Cache = repositories.NewCacheAdapter(r.cache, r.languages)
	}
	return tasks.NewViewModel(opts)
}

// loadViewModel builds a view-model and loads it; partial load failures are logged, not returned.
func (r *Runner) loadViewModel(ctx context.Context, alerter tasks.Alerter) (*tasks.ViewModel, error) {
	vm, err := r.viewModel(alerter, nil)
	if err != nil {
		return nil, err
	}
	if err := vm.Load(ctx); err != nil {
		r.logger.Warn("some snippet lists failed to load", "error", err)
	}
	return vm, nil
}

func (r *Runner) requireDB() error {
	if r.db == nil {
		return fmt.Errorf("%w: database not initialized (run 'snipx setup database')", shared.ErrMissingConfig)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
