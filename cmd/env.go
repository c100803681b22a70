package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/bus"
	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/config"
	"github.com/kihon/kuiz/internal/logging"
	"github.com/kihon/kuiz/internal/outbox"
	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/quiz"
	"github.com/kihon/kuiz/internal/rediskv"
	"github.com/kihon/kuiz/internal/remote"
	"github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/store"
)

// env holds the services a command runs against.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	progress *progress.Store
	outbox   *outbox.Buffer
	remote   *remote.Client
	static   *catalog.StaticLoader
	runner   *session.Runner

	closers []func() error
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := flags.GetString("data"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := flags.GetString("progress"); v != "" {
		cfg.ProgressBackend = strings.ToLower(v)
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, _ := flags.GetString("api"); v != "" {
		cfg.APIBase = strings.TrimRight(v, "/")
		if os.Getenv("KUIZ_SYNC") == "" {
			cfg.Sync = config.SyncRemote
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup opens storage, the outbox and the runner. TUI commands log to a
// file so the alternate screen stays intact.
func setup(cmd *cobra.Command, tui bool) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}

	var logOut io.Writer = os.Stderr
	if tui {
		path := cfg.LogFile
		if path == "" {
			dir, err := store.DataHome()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "kuiz.log")
		}
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, f.Close)
		logOut = f
	}
	if e.logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, logOut); err != nil {
		e.Close()
		return nil, err
	}

	if err := e.open(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) open(ctx context.Context) error {
	cfg := e.cfg

	dbPath := cfg.DBPath
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		dbPath = p
	} else if err := store.EnsureDir(dbPath); err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, st.Close)

	kv, err := e.progressKV(ctx)
	if err != nil {
		return err
	}
	e.progress = progress.NewStore(kv, e.logger)

	if !cfg.Offline() {
		e.remote = remote.New(cfg.APIBase, remote.WithTimeout(cfg.HTTPTimeout), remote.WithLogger(e.logger))
	}
	e.static = catalog.NewStaticLoader(cfg.DataDir, e.logger)

	sink, err := e.sink(ctx)
	if err != nil {
		return err
	}
	e.outbox = outbox.New(cfg.UserID, sink, outbox.WithPersister(st), outbox.WithLogger(e.logger))
	if n, err := e.outbox.Restore(ctx); err != nil {
		e.logger.Warn("restore pending results", "error", err)
	} else if n > 0 {
		e.logger.Info("restored pending results", "count", n)
	}

	e.runner = session.NewRunner(session.Config{
		State:   e.progress.Load(ctx),
		Store:   e.progress,
		Outbox:  e.outbox,
		Journal: st,
		Policy:  session.DefaultPolicy(session.ModeFast),
		Logger:  e.logger,
	})
	e.logger.Debug("environment ready", "db", dbPath, "progress", cfg.ProgressBackend,
		"sync", cfg.Sync, "offline", cfg.Offline())
	return nil
}

// progressKV opens the configured progress backend.
func (e *env) progressKV(ctx context.Context) (progress.KV, error) {
	cfg := e.cfg
	switch cfg.ProgressBackend {
	case config.BackendFile:
		dir := cfg.ProgressDir
		if dir == "" {
			home, err := store.DataHome()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, "progress")
		}
		return progress.NewFileKV(dir)
	case config.BackendRedis:
		client, err := rediskv.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, client.Close)
		return rediskv.New(client, "kuiz:"+cfg.UserID+":"), nil
	case config.BackendMemory:
		return progress.NewMemoryKV(), nil
	}
	return e.store.KV(), nil
}

// sink returns where flushed results go.
func (e *env) sink(ctx context.Context) (outbox.Sink, error) {
	cfg := e.cfg
	switch cfg.Sync {
	case config.SyncRemote:
		return e.remote, nil
	case config.SyncKafka:
		s, err := bus.NewKafkaSink(cfg.KafkaBrokers, cfg.SyncTopic, e.logger)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, s.Close)
		return s, nil
	}
	s, err := bus.NewLocalSink(ctx, cfg.SyncTopic, e.logger)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, s.Close)
	return s, nil
}

// loader is the catalog chain used for sessions: the API when online, then
// imported questions, then the data files.
func (e *env) loader() catalog.Loader {
	var loaders []catalog.Loader
	if e.remote != nil {
		loaders = append(loaders, e.remote)
	}
	loaders = append(loaders, catalog.DatabaseLoader{Lister: e.store}, e.static)
	return catalog.NewChain(e.logger, loaders...)
}

// localCatalog returns the full local catalog, imported questions first.
func (e *env) localCatalog(ctx context.Context) ([]quiz.Question, error) {
	qs, err := e.store.ListQuestions(ctx)
	if err == nil && len(qs) > 0 {
		return qs, nil
	}
	qs, _, err = e.static.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
	}
	return qs, nil
}

// sessionPolicy reads --mode and --explain.
func sessionPolicy(cmd *cobra.Command) (session.Policy, error) {
	modeFlag, _ := cmd.Flags().GetString("mode")
	var mode session.Mode
	switch strings.ToLower(modeFlag) {
	case "", "fast":
		mode = session.ModeFast
	case "manual":
		mode = session.ModeManual
	default:
		return session.Policy{}, fmt.Errorf("--mode %q: want fast or manual", modeFlag)
	}
	p := session.DefaultPolicy(mode)
	p.Explain, _ = cmd.Flags().GetBool("explain")
	return p, nil
}

func (e *env) batchLimit(cmd *cobra.Command) int {
	if n, _ := cmd.Flags().GetInt("limit"); n > 0 {
		return n
	}
	return e.cfg.BatchLimit
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
