// Command registry-server runs the plugin registry: the HTTP API, the
// background job workers, and the periodic discovery/purge scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qhana/plugin-registry/internal/config"
	"github.com/qhana/plugin-registry/internal/discovery"
	"github.com/qhana/plugin-registry/internal/httpapi"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/internal/materializer"
	"github.com/qhana/plugin-registry/internal/recommend"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/qhana/plugin-registry/pkg/audit"
	"github.com/qhana/plugin-registry/pkg/authz"
	"github.com/qhana/plugin-registry/pkg/cache"
	"github.com/qhana/plugin-registry/pkg/ha"
	"github.com/qhana/plugin-registry/pkg/tenancy"
)

func main() {
	configFile := flag.String("config", os.Getenv("REGISTRY_CONFIG_FILE"), "path to a config file (toml/json/yaml)")
	debugRoutes := flag.Bool("debug-routes", false, "mount the /debug diagnostics routes")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*configFile, *debugRoutes, logger); err != nil {
		logger.Error("registry server failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile string, debugRoutes bool, logger *slog.Logger) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	purgeAfter, err := discovery.ParsePurgeAfter(cfg.PluginPurgeAfter)
	if err != nil {
		return fmt.Errorf("invalid purge configuration: %w", err)
	}

	rewrites, err := discovery.CompileRewriteRules(cfg.URLMapFromLocalhost, cfg.URLMapToLocalhost)
	if err != nil {
		return fmt.Errorf("compile url rewrite rules: %w", err)
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	st := store.New(db)
	jobStore := jobs.NewStore(db)
	auditStore := audit.NewStore(db)

	migrationLock := ha.NewMigrationLocker(db)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrationLock.WithLock(ctx, func() error {
		if err := st.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate catalog tables: %w", err)
		}
		if err := jobStore.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate jobs table: %w", err)
		}
		if err := db.AutoMigrate(&audit.Event{}); err != nil {
			return fmt.Errorf("migrate audit table: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	config.Preload(cfg, st, logger)

	mat := materializer.New(db, st, logger)

	onUpserted := func(pluginID uint, created bool) {
		if !created {
			return
		}
		if err := materializer.EnqueuePlugin(jobStore, pluginID, "discovery"); err != nil {
			logger.Error("failed to schedule tab refresh for new plugin", "pluginID", pluginID, "error", err)
		}
	}
	crawler := discovery.New(st, jobStore, &http.Client{}, rewrites, onUpserted, 5*time.Second, logger)
	purger := discovery.NewPurger(st, logger)

	voterRegistry := recommend.NewRegistry(
		recommend.NewCurrentDataRecommender(st),
		recommend.NewAvailableDataRecommender(st),
		recommend.NewStepDataRecommender(st),
		recommend.NewRuleBasedRecommender(st),
	)
	engine := recommend.NewEngine(st, voterRegistry, cfg.PluginRecommenderWeights, logger)

	registry := hypermedia.NewRegistry()
	hypermedia.RegisterDefaultGenerators(registry)

	hostname, _ := os.Hostname()
	haCfg := ha.HAConfigFromEnv()
	elector := ha.NewLeaderElector(haCfg, db, hostname, logger)
	go elector.Run(ctx)

	discoveryInterval := time.Duration(cfg.PluginDiscoveryInterval) * time.Second
	if cfg.PluginDiscoveryInterval < 0 {
		discoveryInterval = 0
	}
	scheduler, err := discovery.NewScheduler(st, jobStore, discovery.SchedulerConfig{
		DiscoveryInterval: discoveryInterval,
		PurgeInterval:     time.Duration(cfg.PluginPurgeInterval) * time.Second,
		PurgeAfter:        purgeAfter,
		BatchSize:         cfg.PluginBatchSize,
		Stagger:           time.Second,
	}, elector.IsLeader, logger)
	if err != nil {
		return fmt.Errorf("invalid discovery configuration: %w", err)
	}
	go scheduler.Run(ctx)

	// Each background run leaves an audit event alongside the job row.
	audited := func(action string, h jobs.Handler) jobs.Handler {
		return func(jobCtx context.Context, payload string) error {
			err := h(jobCtx, payload)
			outcome := "success"
			if err != nil {
				outcome = "error"
			}
			audit.RecordJob(auditStore, logger, "job", action, nil, outcome, nil)
			return err
		}
	}
	handlers := map[jobs.Kind]jobs.Handler{
		jobs.KindDiscoverSeed:      audited("discover-seed", crawler.HandleDiscover),
		jobs.KindPurge:             audited("purge", purger.HandlePurge),
		jobs.KindMaterializeTab:    audited("materialize-tab", mat.HandleMaterializeTab),
		jobs.KindMaterializePlugin: audited("materialize-plugin", mat.HandleMaterializePlugin),
	}
	pool := jobs.NewWorkerPool(jobStore, handlers, jobs.DefaultConfig(), logger)
	go pool.Run(ctx)

	auditCfg := audit.AuditConfigFromEnv()
	retention := audit.NewRetentionWorker(auditStore, auditCfg.RetentionDays, logger)
	go retention.Run(ctx)

	// Repair tab membership once at startup so templates preloaded above (or
	// changed out-of-band) are materialized without waiting for a tab write.
	go func() {
		if err := mat.ReconcileAll(); err != nil {
			logger.Error("startup tab reconcile failed", "error", err)
		}
	}()

	router := httpapi.NewRouter(&httpapi.Deps{
		Store:         st,
		Jobs:          jobStore,
		Crawler:       crawler,
		Materializer:  mat,
		Recommender:   engine,
		VoterRegistry: voterRegistry,
		Backend:       recommend.NewHTTPBackendClient(&http.Client{}, 5*time.Second),
		Registry:      registry,

		AuditStore:  auditStore,
		AuditConfig: auditCfg,
		CacheMgr:    cache.NewCacheManager(cache.CacheConfigFromEnv()),
		Authorizer:  &authz.NoopAuthorizer{},
		TenancyMode: tenancy.ModeSingle,

		RecommendationTimeout: time.Duration(cfg.RecommendationTimeout * float64(time.Second)),
		RecommendationLimit:   cfg.RecommendationLimit,

		DebugRoutes: debugRoutes,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("registry server listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}
