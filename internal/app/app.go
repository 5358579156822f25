package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sflens/internal/config"
	"github.com/MrSnakeDoc/sflens/internal/devhub"
	"github.com/MrSnakeDoc/sflens/internal/export"
	"github.com/MrSnakeDoc/sflens/internal/httpserver"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/redis"
	"github.com/MrSnakeDoc/sflens/internal/scheduler"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/store"
	filestore "github.com/MrSnakeDoc/sflens/internal/store/file"
	redisstore "github.com/MrSnakeDoc/sflens/internal/store/redis"
	"github.com/MrSnakeDoc/sflens/internal/version"
)

// Core is the DevHub service with its storage, shared by the server and the
// one-shot CLI commands.
type Core struct {
	Service    *devhub.Service
	Exporter   *export.Exporter
	FileStore  *filestore.Store
	RedisStore *redisstore.Store // nil when redis is disabled
	Redis      *goredis.Client   // nil when redis is disabled

	logger logger.Logger
}

// NewCore builds the CLI executor, the snapshot stores and the service.
// Redis is optional: a configured but unreachable redis is an error.
func NewCore(ctx context.Context, cfg *config.Config, log logger.Logger) (*Core, error) {
	executor := sfcli.NewExecutor(sfcli.Options{
		Binary:    cfg.SFBinary,
		Timeout:   cfg.CommandTimeout,
		MaxOutput: cfg.MaxOutput,
		Rate:      cfg.CommandRate,
		Burst:     cfg.CommandBurst,
	}, log)

	c := &Core{
		FileStore: filestore.New(cfg.StorageDir, log),
		Exporter:  export.NewExporter(cfg.ExportDir, log),
		logger:    log,
	}
	chain := store.Chain{c.FileStore}

	if cfg.RedisEnabled() {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("Redis initialized successfully")
		c.Redis = client
		c.RedisStore = redisstore.NewStore(client, cfg.RedisNamespace, cfg.RedisSnapshotTTL, log)
		chain = append(chain, c.RedisStore)
	}

	c.Service = devhub.New(executor, devhub.Options{
		OrgsTTL:          cfg.OrgsTTL,
		LimitsTTL:        cfg.LimitsTTL,
		SnapshotsInfoTTL: cfg.SnapshotsInfoTTL,
		EditionTTL:       cfg.EditionTTL,
		FanOutLimit:      cfg.FanOutLimit,
		Store:            chain,
	}, log)

	return c, nil
}

// ClearCaches drops the in-memory caches and every persisted snapshot.
func (c *Core) ClearCaches(ctx context.Context) error {
	c.Service.InvalidateCache()
	if err := c.FileStore.Clear(); err != nil {
		return fmt.Errorf("clear snapshot file: %w", err)
	}
	if c.RedisStore != nil {
		if err := c.RedisStore.Clear(ctx); err != nil {
			return fmt.Errorf("clear redis: %w", err)
		}
	}
	return nil
}

// Close stops background refreshes and closes redis.
func (c *Core) Close() {
	c.Service.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Warnf("failed to close redis: %v", err)
		} else {
			c.logger.Info("✅ Redis closed cleanly")
		}
	}
}

// App is the long-running server: the core, its background workers and the
// HTTP server.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	core        *Core
	server      *httpserver.Server
	warmer      *scheduler.Warmer
	reloader    *scheduler.OrgsReloader
	janitor     *scheduler.CacheJanitor
	authWatcher *scheduler.AuthWatcher // nil when the auth directory is absent
}

func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	loggerClient.Debug("configuration loaded", logger.Any("config", cfg.Redacted()))

	core, err := NewCore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewOrgsReloader(core.Service, loggerClient, cfg.RefreshInterval, reloadTrigger)
	janitor := scheduler.NewCacheJanitor(core.Service, loggerClient, cfg.JanitorInterval)

	// `sf org login` and `sf org logout` rewrite the auth directory
	authWatcher, err := scheduler.NewAuthWatcher(cfg.AuthDir, cfg.AuthDebounce, func() {
		core.Service.InvalidateCache()
		scheduler.Trigger(reloadTrigger)
	}, loggerClient)
	if err != nil {
		loggerClient.Warn("failed to watch the auth directory", logger.Error(err))
		authWatcher = nil
	}

	var redisClient goredis.UniversalClient
	if core.Redis != nil {
		redisClient = core.Redis
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Service:       core.Service,
		Exporter:      core.Exporter,
		RedisClient:   redisClient,
		ReloadTrigger: reloadTrigger,
		MutationRate:  cfg.MutationRate,
		MutationBurst: cfg.MutationBurst,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		core:        core,
		server:      httpserver.New(cfg, loggerClient, d),
		warmer:      scheduler.NewWarmer(core.Service, loggerClient),
		reloader:    reloader,
		janitor:     janitor,
		authWatcher: authWatcher,
	}, nil
}

// Run serves until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting sflens v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Info(version.String())

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// A failed warm-up is not fatal: the panel retries on its first request.
	if err := a.warmer.Warm(ctx); err != nil {
		a.logger.Warn("failed to warm the org list", logger.Error(err))
	}

	a.reloader.Start(ctx)
	a.logger.Info("org reloader started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	a.janitor.Start(ctx)
	a.logger.Info("cache janitor started",
		logger.Duration("interval", a.cfg.JanitorInterval))

	if a.authWatcher != nil {
		a.authWatcher.Start(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.reloader.Stop()
	a.janitor.Stop()
	if a.authWatcher != nil {
		if err := a.authWatcher.Stop(); err != nil {
			a.logger.Warn("failed to stop auth watcher", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.core.Close()

	if runErr == nil {
		a.logger.Info("✅ sflens stopped cleanly")
	}
	return runErr
}
