package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/config"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/logs"
	"github.com/MrSnakeDoc/bigbrother/internal/redis"
	"github.com/MrSnakeDoc/bigbrother/internal/registry/pm2"
	"github.com/MrSnakeDoc/bigbrother/internal/scheduler"
	"github.com/MrSnakeDoc/bigbrother/internal/sink"
	memstore "github.com/MrSnakeDoc/bigbrother/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/bigbrother/internal/store/redis"
	"github.com/MrSnakeDoc/bigbrother/internal/stream"
	"github.com/MrSnakeDoc/bigbrother/internal/utils"
	"github.com/MrSnakeDoc/bigbrother/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sink        sink.Sink
	sweeper     *scheduler.TokenSweeper
}

// New builds every dependency from cfg. Nothing is started yet except the
// connections that must fail fast: redis and the log sink.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: loggerClient}

	store, err := a.refreshStore(ctx)
	if err != nil {
		return nil, err
	}

	principal := auth.NewPrincipal(cfg.AdminUsername, cfg.AdminPasswordHash)
	authSvc, err := auth.NewService(AuthOptions(cfg), principal, store, loggerClient)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("auth service: %w", err)
	}

	client := pm2.New(pm2.Options{
		Home:        cfg.PM2Home,
		DialTimeout: cfg.PM2DialTimeout,
		CallTimeout: cfg.PM2CallTimeout,
	}, loggerClient)

	dirs := logs.DefaultDirs(cfg.PM2Home)
	if cfg.LogPathsFile != "" {
		dirs, err = logs.NewDirsLoader(cfg.LogPathsFile).Load(dirs)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("log paths: %w", err)
		}
		loggerClient.Info("log directories loaded", logger.String("file", cfg.LogPathsFile))
	}
	locator := logs.NewLocator(dirs, cfg.IsProduction())
	reader := logs.NewReader(cfg.DefaultLogLines, cfg.MaxLogLines)
	logSvc := logs.NewService(locator, reader, client, loggerClient)

	var sinkPinger deps.Pinger
	a.sink = sink.Nop{}
	if cfg.SinkDBPath != "" {
		sq, err := sink.OpenSQLite(ctx, cfg.SinkDBPath, sink.Options{}, loggerClient)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("log sink: %w", err)
		}
		a.sink, sinkPinger = sq, sq
		loggerClient.Info("log sink enabled", logger.String("path", cfg.SinkDBPath))
	}

	streams := stream.NewController(client, a.sink, cfg.StreamHeartbeat, loggerClient)
	a.sweeper = scheduler.NewTokenSweeper(authSvc, loggerClient, cfg.SweepSchedule)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		Environment:     cfg.Env,
		Production:      cfg.IsProduction(),
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		FrontendURL:     cfg.FrontendURL,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		RequestTimeout:  cfg.RequestTimeout,
		Auth:            authSvc,
		Registry:        client,
		Logs:            logSvc,
		Streams:         streams,
		Sweeper:         a.sweeper,
		Redis:           a.redisClient,
		Sink:            sinkPinger,
	}

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

// AuthOptions maps the configuration onto token service options.
func AuthOptions(cfg *config.Config) auth.Options {
	return auth.Options{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
	}
}

func (a *App) refreshStore(ctx context.Context) (auth.Store, error) {
	if a.cfg.RefreshStore != config.RefreshStoreRedis {
		a.logger.Info("refresh tokens kept in memory")
		return memstore.NewRefreshStore(), nil
	}

	// Initialize Redis early - fail fast if unavailable
	a.logger.Infof("Connecting to Redis at %s", a.cfg.RedisAddr)
	client, err := redis.New(ctx, redis.ConnectOptions{
		Purpose:        "refresh-store",
		Addr:           a.cfg.RedisAddr,
		User:           a.cfg.RedisUser,
		Password:       a.cfg.RedisPassword,
		RedisDB:        a.cfg.RedisDB,
		DialTimeout:    a.cfg.RedisDT,
		ReadTimeout:    a.cfg.RedisRT,
		WriteTimeout:   a.cfg.RedisWT,
		PoolSize:       a.cfg.RedisPoolSize,
		ConnectTimeout: a.cfg.RedisConnectTimeout,
		RetryInterval:  a.cfg.RedisRetryInterval,
		MaxWait:        a.cfg.RedisMaxWait,
		PingTimeout:    a.cfg.RedisPingTimeout,
		WarnThreshold:  a.cfg.RedisWarnThreshold,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.logger.Info("Redis initialized successfully")
	a.redisClient = client
	return redisstore.NewRefreshStore(client), nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting bigbrother %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("bigbrother %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.sweeper.Start(ctx); err != nil {
		a.close()
		return fmt.Errorf("failed to start token sweeper: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.sweeper.Stop()
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Warn("server did not stop cleanly", logger.Error(err))
	}

	a.sweeper.Stop()
	a.close()

	a.logger.Info("✅ bigbrother stopped cleanly")
	return nil
}

// close releases the backends once no request can reach them anymore.
func (a *App) close() {
	utils.CloseLogged(a.sink, a.logger, "log sink")
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, a.logger, "redis")
	}
}
