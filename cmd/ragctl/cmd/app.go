package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/irisrag/ragcore/internal/chunk"
	"github.com/irisrag/ragcore/internal/config"
	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/embed"
	"github.com/irisrag/ragcore/internal/index"
	"github.com/irisrag/ragcore/internal/logging"
	"github.com/irisrag/ragcore/internal/rag"
	"github.com/irisrag/ragcore/internal/router"
	"github.com/irisrag/ragcore/internal/routerstate"
)

// defaultConversationID keys router lock persistence for this CLI,
// which runs one conversation per store (no multi-session chat command
// exists yet to supply a real per-session ID).
const defaultConversationID = "default"

// app bundles the wired components every subcommand needs: store,
// embedder, indexing pool, retrieval repository, and the conversation
// router, all built from one resolved Config.
type app struct {
	cfg        *config.Config
	store      *docstore.Store
	embedder   *embed.Facade
	pool       *index.Pool
	repo       *rag.Repository
	router     *router.Router
	routerDB   *routerstate.Store
	logger     *slog.Logger
	logCleanup func()
}

// newApp loads config for dir, opens the doc store, and wires the
// indexing/retrieval/routing stack on top of it.
func newApp(dir string) (*app, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: cfg.Logging.WriteToStderr,
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	store, err := docstore.Open(cfg.Store.RootDir)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("open store at %s: %w", cfg.Store.RootDir, err)
	}

	embedder := embed.NewFacade(cfg.Cache.QueryCacheCapacity)
	embedder.Attach(embed.NewStaticEmbedder())

	chunkOpts := chunk.Options{
		TargetChars:  cfg.Chunking.TargetChars,
		OverlapChars: cfg.Chunking.OverlapChars,
	}
	pool := index.NewPool(store, embedder, chunkOpts, cfg.Worker.MaxConcurrent, logger)
	repo := rag.New(store, embedder, pool, cfg.Cache.DocCacheCapacity, logger)

	routerDBPath := ""
	if cfg.Store.RootDir != "" {
		routerDBPath = cfg.Store.RootDir + "/router_state.db"
	}
	routerDB, err := routerstate.Open(routerDBPath)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("open router state: %w", err)
	}

	rt := router.New(repo, cfg.Router.DocumentKeywords, cfg.Retrieval.TopK, cfg.Retrieval.Threshold, cfg.Context.MaxChars, cfg.Context.PerDocCap)
	if err := rt.AttachState(routerDB, defaultConversationID); err != nil {
		logger.Warn("failed to restore router lock state", "error", err)
	}

	return &app{
		cfg:        cfg,
		store:      store,
		embedder:   embedder,
		pool:       pool,
		repo:       repo,
		router:     rt,
		routerDB:   routerDB,
		logger:     logger,
		logCleanup: cleanup,
	}, nil
}

// Close stops the embedder's native runner, releases the router state
// DB, and runs the logging cleanup.
func (a *app) Close() error {
	var err error
	if a.embedder != nil {
		a.embedder.Close()
	}
	if a.routerDB != nil {
		err = a.routerDB.Close()
	}
	if a.logCleanup != nil {
		a.logCleanup()
	}
	return err
}

// embedderBackendLabel names the embedder backend currently attached.
// newApp always attaches the static hash embedder; a future local model
// backend would report its own ModelName() here instead.
func embedderBackendLabel(a *app) string {
	if !a.embedder.Attached() {
		return "none"
	}
	return "static-hash"
}

// projectDir resolves the working directory used for per-project
// config discovery (.ragcore.yaml), defaulting to the current
// directory.
func projectDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
