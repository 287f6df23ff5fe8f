package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/devdazzlee/southen-sweet-sub000/internal/analytics"
	"github.com/devdazzlee/southen-sweet-sub000/internal/cache"
	"github.com/devdazzlee/southen-sweet-sub000/internal/checkout"
	"github.com/devdazzlee/southen-sweet-sub000/internal/config"
	"github.com/devdazzlee/southen-sweet-sub000/internal/discount"
	h "github.com/devdazzlee/southen-sweet-sub000/internal/http"
	"github.com/devdazzlee/southen-sweet-sub000/internal/repository"
	"github.com/devdazzlee/southen-sweet-sub000/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	repo := repository.NewMongoRepository(db)
	if idx, ok := repo.(interface{ CreateIndexes(context.Context) error }); ok {
		if err := idx.CreateIndexes(ctx); err != nil {
			logger.Warnw("failed to create cart indexes", "error", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	cartCache := cache.NewRedisCache(redisClient)
	cartService := service.NewCartService(repo, cartCache, logger)

	discountClient := discount.NewClient(cfg.Backend.DiscountBaseURL, cfg.Backend.Timeout)
	discounts := discount.NewRegistry(discountClient)

	ordersClient := checkout.NewClient(cfg.Backend.OrdersBaseURL, cfg.Backend.Timeout)

	sender := analytics.NewHTTPSender(cfg.Analytics.Endpoint, cfg.Backend.Timeout)
	batcher := analytics.New(analytics.Config{
		WebsiteID:     cfg.Analytics.WebsiteID,
		Endpoint:      cfg.Analytics.Endpoint,
		BatchSize:     cfg.Analytics.BatchSize,
		FlushInterval: cfg.Analytics.FlushInterval,
	}, sender, serverSnapshot, logger)

	batcherDone := make(chan struct{})
	go func() {
		batcher.Run(ctx)
		close(batcherDone)
	}()

	cartHandler := h.NewCartHandler(cartService, batcher, cfg.Server.RequestTimeout)
	discountHandler := h.NewDiscountHandler(cartService, discounts, cfg.Server.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(cartService, discounts, ordersClient, batcher, cfg.Server.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Put("/items/{product_id}/selected", cartHandler.SetSelected)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/select-all", cartHandler.SelectAll)
			r.Delete("/selected", cartHandler.DeleteSelected)
		})
		r.Route("/discount", func(r chi.Router) {
			r.Get("/", discountHandler.Current)
			r.Post("/", discountHandler.Apply)
			r.Delete("/", discountHandler.Remove)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Get("/totals", checkoutHandler.GetTotals)
			r.Post("/", checkoutHandler.Submit)
		})
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      otelhttp.NewHandler(r, "storefront-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infow("storefront API starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()

	logger.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Run bounds its final flush at one second, so this cannot hang
	<-batcherDone

	logger.Infow("server exited")
	return nil
}

// serverSnapshot stands in for the browser descriptors when events originate
// on the server.
func serverSnapshot() analytics.Snapshot {
	return analytics.Snapshot{
		Browser: analytics.BrowserInfo{
			UserAgent: "storefront-server/" + analytics.Version,
			Platform:  runtime.GOOS,
		},
		Device: analytics.DeviceInfo{
			Timezone: time.Local.String(),
		},
	}
}
