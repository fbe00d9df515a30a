package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/config"
	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/logging"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

const recordTimeout = 5 * time.Second

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	closeLog   func() error
	store      *store.JSONStore
	executor   *executor.Executor
	controller *executor.Controller
	history    *history.DB
}

// New builds an App from cfg. The data directory and library file are
// created when missing.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := logging.Setup(logging.Config{
		Path:  cfg.LogPath(),
		Debug: cfg.GetDebug(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
	}

	a.store = store.NewJSONStore(cfg.DataDir,
		store.WithFileName(cfg.DataFile),
		store.WithLogger(logger.With(slog.String("component", "store"))))
	if err := a.store.Bootstrap(); err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to bootstrap library: %w", err)
	}

	if cfg.GetHistoryEnabled() {
		a.history, err = history.Open(cfg.HistoryPath())
		if err != nil {
			_ = closeLog()
			return nil, err
		}
	}

	a.executor = executor.New(newClient(cfg),
		executor.WithLogger(logger.With(slog.String("component", "executor"))),
		executor.WithObserver(a.record))
	a.controller = a.executor.Controller()

	logger.Info("hitdesk started",
		slog.String("data_dir", cfg.DataDir),
		slog.String("library", a.store.Path()),
		slog.Bool("history", a.history != nil))

	return a, nil
}

func newClient(cfg *config.Config) *http.Client {
	opts := []http.ClientOption{
		http.WithTimeout(cfg.TimeoutDuration()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}

	expander := env.NewExpander(os.LookupEnv)
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = expander.Expand(v)
	}
	opts = append(opts, http.WithDefaultHeaders(headers))

	return http.NewClient(opts...)
}

// record is the executor observer. History failures are logged, never returned.
func (a *App) record(spec executor.RequestSpec, result executor.Result) {
	a.logger.Info("request executed",
		slog.String("method", spec.Method),
		slog.String("url", spec.URL),
		slog.String("kind", string(result.Kind)),
		slog.Int("status", result.Status),
		slog.Duration("duration", result.Duration))

	if a.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := history.FromResult(spec, result, time.Now().Add(-result.Duration))
	if err := a.history.Record(ctx, entry); err != nil {
		a.logger.Warn("failed to record execution", slog.Any("error", err))
	}
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) Store() *store.JSONStore {
	return a.store
}

// Controller returns the cancellation handle for the executor.
func (a *App) Controller() *executor.Controller {
	return a.controller
}

// Run executes spec, superseding whatever is in flight.
func (a *App) Run(ctx context.Context, spec executor.RequestSpec) executor.Result {
	return a.executor.Execute(ctx, spec)
}

// Cancel cancels the in-flight execution. It returns
// executor.ErrNoActiveRequest when nothing is running.
func (a *App) Cancel() error {
	return a.controller.Cancel()
}

// Send executes the saved request with the given id.
func (a *App) Send(ctx context.Context, id string) (executor.Result, error) {
	spec, err := a.ResolveRequest(id)
	if err != nil {
		return executor.Result{}, err
	}
	return a.Run(ctx, spec), nil
}

// ResolveRequest finds the saved request with the given id and builds its
// spec with {{$NAME}} references expanded from the environment.
func (a *App) ResolveRequest(id string) (executor.RequestSpec, error) {
	doc, err := a.store.Load()
	if err != nil {
		return executor.RequestSpec{}, err
	}
	req, _, err := doc.FindRequest(id)
	if err != nil {
		return executor.RequestSpec{}, err
	}

	spec, missing := ExpandSpec(SpecFromSaved(req), os.LookupEnv)
	if len(missing) > 0 {
		a.logger.Warn("unresolved variables in saved request",
			slog.String("id", id),
			slog.Any("names", missing))
	}
	return spec, nil
}

// Document loads the library.
func (a *App) Document() (*store.Document, error) {
	return a.store.Load()
}

// SaveDocument replaces the library.
func (a *App) SaveDocument(doc *store.Document) error {
	return a.store.Save(doc)
}

// UpsertRequest replaces a saved request in the persisted library.
func (a *App) UpsertRequest(req store.SavedRequest) error {
	return a.store.SaveRequest(req)
}

// AddCollection creates and persists an empty collection.
func (a *App) AddCollection(name string) (store.Collection, error) {
	if strings.TrimSpace(name) == "" {
		return store.Collection{}, errors.New("collection name must not be empty")
	}

	var created store.Collection
	_, err := a.store.Update(func(doc *store.Document) error {
		created = doc.AddCollection(name)
		return nil
	})
	return created, err
}

// AddRequest persists a new saved request. An empty collectionID adds it at
// the top level.
func (a *App) AddRequest(collectionID string, req store.SavedRequest) (store.SavedRequest, error) {
	if _, ok := executor.ParseMethod(req.Method); !ok {
		return store.SavedRequest{}, fmt.Errorf("unsupported method %q", req.Method)
	}

	var created store.SavedRequest
	_, err := a.store.Update(func(doc *store.Document) error {
		var err error
		created, err = doc.AddRequest(collectionID, req)
		return err
	})
	return created, err
}

// Watch calls onChange whenever the library file changes on disk.
func (a *App) Watch(ctx context.Context, onChange func(*store.Document, error)) error {
	return a.store.Watch(ctx, onChange)
}

// HistoryEnabled reports whether executions are recorded.
func (a *App) HistoryEnabled() bool {
	return a.history != nil
}

// History returns recorded executions, newest first. It is empty when
// history is disabled.
func (a *App) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if a.history == nil {
		return []history.Entry{}, nil
	}
	return a.history.List(ctx, limit)
}

// Stats summarizes every recorded execution.
func (a *App) Stats(ctx context.Context) (history.Stats, error) {
	entries, err := a.History(ctx, 0)
	if err != nil {
		return history.Stats{}, err
	}
	return history.Summarize(entries), nil
}

// ClearHistory deletes all recorded executions.
func (a *App) ClearHistory(ctx context.Context) (int64, error) {
	if a.history == nil {
		return 0, nil
	}
	return a.history.Clear(ctx)
}

// Close cancels any outstanding execution and releases the history database
// and the log file.
func (a *App) Close() error {
	a.executor.Close()

	var errs []error
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	a.logger.Info("hitdesk stopped")
	if err := a.closeLog(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}
