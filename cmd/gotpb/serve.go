package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amaumene/gotpb/internal/cache"
	"github.com/amaumene/gotpb/internal/constants"
	"github.com/amaumene/gotpb/internal/database"
	"github.com/amaumene/gotpb/internal/handlers"
	"github.com/amaumene/gotpb/internal/middleware"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/ratelimiter"
	"github.com/amaumene/gotpb/pkg/security"
	"github.com/amaumene/gotpb/pkg/tpb"
	"github.com/gin-gonic/gin"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("serve")
	port := fs.String("port", a.cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	results := cache.New[*tpb.SearchResult](a.cfg.CacheSize, time.Duration(a.cfg.CacheTTL))
	results.StartCleanup(ctx, constants.CacheCleanupInterval)

	h := handlers.New(a.client, results, a.logger)
	if a.cfg.CacheDB != "" {
		store, err := database.NewBolt(a.cfg.CacheDB)
		if err != nil {
			return err
		}
		defer store.Close()
		storeCtx, stopCleanup := context.WithCancel(ctx)
		defer stopCleanup()

		h.SetStore(store, time.Duration(a.cfg.CacheTTL))
		go a.cleanStore(storeCtx, store)
		a.logger.Infof("[App] persisting results in %s", a.cfg.CacheDB)
	}

	limiter := ratelimiter.NewTokenBucket(int64(a.cfg.RateBurst), int64(a.cfg.RateLimit))
	router := newRouter(h, limiter, a.cfg.APIKey, a.logger)

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("[App] starting HTTP server on port %s (%s, %s)", *port, a.client.Dialect(), a.client.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Infof("[App] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// cleanStore drops expired results until ctx is done.
func (a *app) cleanStore(ctx context.Context, store *database.BoltStore) {
	ticker := time.NewTicker(constants.CacheCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed, err := store.DeleteOlderThan(time.Duration(a.cfg.CacheTTL))
			if err != nil {
				a.logger.Warnf("[App] store cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				a.logger.Debugf("[App] removed %d expired results", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

func newRouter(h *handlers.Handler, limiter ratelimiter.RateLimiter, apiKey string, log logger.Logger) *gin.Engine {
	validator := security.NewAPIKeyValidator()
	if apiKey != "" {
		log.Infof("[App] API key required: %s", validator.MaskAPIKey(apiKey))
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())
	r.Use(middleware.RateLimit(limiter))
	r.Use(middleware.APIKey(apiKey, validator))
	h.RegisterRoutes(r)
	return r
}
