package main

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/dhaslem/herald/internal/catalog"
	"github.com/dhaslem/herald/internal/config"
	"github.com/dhaslem/herald/internal/dispatch"
	"github.com/dhaslem/herald/internal/plugin"
	"github.com/dhaslem/herald/internal/rowstore"
	"github.com/dhaslem/herald/internal/security"
)

// app is the composition root: one store, one repository, one loader, one
// session and one engine per process, wired here and nowhere else.
type app struct {
	cfg    *config.Config
	logger hclog.Logger

	store      *catalog.Store
	repo       *catalog.Repository
	loader     *plugin.Loader
	rows       *rowstore.SQLiteStore
	engine     *security.Engine
	dispatcher *dispatch.Dispatcher
}

func newApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, config.ErrNotFound) {
		cfg = config.Default(filepath.Dir(configPath))
	} else if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel, logOut)

	store := catalog.NewStore(logger, cfg.RepositoryPath, cfg.PluginDir)
	repo, err := store.Load()
	if err != nil {
		logger.Warn("repository blob unreadable, starting empty", "error", err)
		repo = catalog.NewRepository()
	}

	rows, err := rowstore.OpenSQLite(cfg.RowStoreDSN)
	if err != nil {
		return nil, err
	}

	loader := plugin.NewLoader(logger, repo)
	session := dispatch.NewSession(dispatch.Actor{
		Profile: cfg.Actor.Profile,
		User:    cfg.Actor.User,
	})

	engine := security.NewEngine(logger, rows, repo,
		security.WithDefaultActor(cfg.Actor.Profile, cfg.Actor.User),
		security.WithUnmatchedAllow(cfg.Unmatched()),
		security.WithLastEvent(session.LastEvent),
	)
	if err := engine.AddRule(security.DirectoryRule(directoryFromConfig(cfg))); err != nil {
		_ = rows.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		repo:       repo,
		loader:     loader,
		rows:       rows,
		engine:     engine,
		dispatcher: dispatch.NewDispatcher(logger, repo, loader, engine, session),
	}, nil
}

func (a *app) close() {
	a.loader.Close()
	if err := a.rows.Close(); err != nil {
		a.logger.Warn("closing row store", "error", err)
	}
}

// directoryFromConfig builds the static directory the built-in rule
// consults: the configured actor's level, groups and roles.
func directoryFromConfig(cfg *config.Config) *security.StaticDirectory {
	user := strings.ToLower(cfg.Actor.User)
	return &security.StaticDirectory{
		Levels: map[string]int{user: cfg.Actor.Level},
		Groups: map[string][]string{user: cfg.Actor.Groups},
		Roles:  map[string][]string{user: cfg.Actor.Roles},
	}
}
