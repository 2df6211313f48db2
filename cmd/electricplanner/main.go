package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/config"
	"github.com/yonbergman/electric-planner/engine"
	"github.com/yonbergman/electric-planner/messaging"
	"github.com/yonbergman/electric-planner/share"
	"github.com/yonbergman/electric-planner/store"
	"github.com/yonbergman/electric-planner/workspace"
	"github.com/yonbergman/electric-planner/www"
)

var Version = "dev"

const (
	remoteShareTimeout = 10 * time.Second
	sharePurgeInterval = time.Hour
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "electricplanner.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("electricplanner", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("electricplanner", zap.Error(err))
	}
}

func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if lc.Level != "" {
		level, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	log.Info("database open", zap.String("driver", cfg.Database.Driver))

	// Redis is optional; without it shares fall back to SQL and the
	// workspace slot is read from SQL only.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	redisOK := redisClient.Ping(pingCtx).Err() == nil
	cancel()
	if redisOK {
		log.Info("redis connected", zap.String("addr", cfg.Redis.Address))
	} else {
		log.Warn("redis not available, running without cache", zap.String("addr", cfg.Redis.Address))
	}

	// Workspace slot
	var wsRedis *workspace.RedisStore
	if redisOK {
		wsRedis = workspace.NewRedisStore(redisClient)
	}
	ws := workspace.NewManager(db, wsRedis, cfg.Workspace.Slot, log.Named("workspace"))
	if err := ws.SyncRedisFromSQL(ctx); err != nil {
		log.Warn("workspace redis sync", zap.Error(err))
	}

	// Share links
	sharer, stopPurge := newSharer(cfg, db, redisClient, redisOK, log.Named("share"))
	defer stopPurge()

	// Messaging
	var msgClient *messaging.Client
	if cfg.Messaging.Enabled {
		msgClient = messaging.NewClient(&cfg.Messaging, log.Named("messaging"))
		if err := msgClient.Connect(); err != nil {
			log.Warn("messaging connect failed", zap.String("backend", cfg.Messaging.Backend), zap.Error(err))
		} else {
			log.Info("messaging connected", zap.String("backend", cfg.Messaging.Backend))
		}
		defer msgClient.Close()
	}

	// Engine
	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Workspace: ws,
		Sharer:    sharer,
		MsgClient: msgClient,
		Logger:    log.Named("engine"),
	})
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng, log.Named("www"))
	defer stopWeb()

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("web server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("ready", zap.String("version", Version))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("web server shutdown", zap.Error(err))
	}
	log.Info("stopped")
	return nil
}

// newSharer picks where share links live: a remote planner, Redis, or the
// SQL database. The SQL backend gets a purge loop for expired rows.
func newSharer(cfg *config.Config, db *store.DB, rc *redis.Client, redisOK bool, log *zap.Logger) (share.Sharer, func()) {
	if cfg.Share.RemoteURL != "" {
		log.Info("share links delegated", zap.String("url", cfg.Share.RemoteURL))
		return share.NewClient(cfg.Share.RemoteURL, remoteShareTimeout), func() {}
	}

	if cfg.Share.Backend == "redis" && redisOK {
		backend := share.NewRedisBackend(rc, cfg.Share.KeyPrefix)
		return share.NewService(backend, cfg.Share.TTL, cfg.Share.CacheTTL, log), func() {}
	}
	if cfg.Share.Backend == "redis" {
		log.Warn("redis share backend unavailable, using database")
	}

	backend := share.NewSQLBackend(db)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(sharePurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n, err := backend.Purge()
				if err != nil {
					log.Warn("purge expired shares", zap.Error(err))
				} else if n > 0 {
					log.Info("purged expired shares", zap.Int64("count", n))
				}
			}
		}
	}()
	stopFn := func() {
		close(done)
		<-stopped
	}
	return share.NewService(backend, cfg.Share.TTL, cfg.Share.CacheTTL, log), stopFn
}
