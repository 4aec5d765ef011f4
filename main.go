package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"catstagram/config"
	"catstagram/database"
	"catstagram/handlers"
	"catstagram/logger"
	"catstagram/middleware"
	"catstagram/posts"
	"catstagram/routes"
	"catstagram/storage"
	"catstagram/store"
	"catstagram/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", "error", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting Catstagram backend", "port", cfg.Port, "store", cfg.StoreDriver)

	var (
		repo   store.PostRepository
		pinger handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, posts are lost on restart")
		repo = store.NewMemoryRepository()
	default:
		db, err := database.Connect(ctx, log, database.Options{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Retries:  cfg.ConnectRetries,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				log.Warn("MongoDB disconnect", "error", err)
			}
		}()

		mongoRepo := store.NewMongoRepository(db.Posts())
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo, pinger = mongoRepo, db
	}

	images, uploadDir, err := imageStore(cfg, log)
	if err != nil {
		return err
	}

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	hub := websocket.NewManager(log, cfg.CORSOrigins)
	go hub.Start(ctx)

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		go sweep(ctx, limiter)
	}

	svc := posts.NewService(repo, posts.WithNotifier(hub))
	router := routes.SetupRouter(routes.Deps{
		Log:            log,
		Posts:          handlers.NewPostHandler(svc, images, log, cfg.MaxUploadBytes()),
		Health:         handlers.NewHealthHandler(pinger, log),
		Events:         hub,
		CORSOrigins:    cfg.CORSOrigins,
		Limiter:        limiter,
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "error", err)
	}
	log.Info("server stopped")
	return nil
}

// imageStore returns the configured image store and, for local storage,
// the directory to serve under /uploads.
func imageStore(cfg config.Config, log *logger.Logger) (storage.ImageStore, string, error) {
	if cfg.CloudinaryURL != "" {
		cld, err := storage.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			return nil, "", err
		}
		log.Info("images stored on Cloudinary")
		return cld, "", nil
	}
	local, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, "", err
	}
	log.Info("images stored on local disk", "dir", local.Dir())
	return local, local.Dir(), nil
}

func sweep(ctx context.Context, limiter *middleware.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
