package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SSG-Realive/Realive-sub001/internal/backend"
	"github.com/SSG-Realive/Realive-sub001/internal/cart"
	"github.com/SSG-Realive/Realive-sub001/internal/config"
	h "github.com/SSG-Realive/Realive-sub001/internal/http"
	"github.com/SSG-Realive/Realive-sub001/internal/intent"
	"github.com/SSG-Realive/Realive-sub001/internal/payment"
	"github.com/SSG-Realive/Realive-sub001/internal/publisher"
	"github.com/SSG-Realive/Realive-sub001/internal/repository"
	"github.com/SSG-Realive/Realive-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	mongoClient, cartCollection, err := cart.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("failed to disconnect mongodb: %v", err)
		}
	}()

	repo, err := repository.NewRepository(cfg.DBDriver, cfg.DBDataSourceName)
	if err != nil {
		log.Fatalf("failed to open session repository: %v", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.MigrationsDirPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	tossClient := payment.NewTossClient(cfg.TossBaseURL, cfg.TossClientKey, cfg.TossSecretKey)
	// The handshake runs in the background; sessions created before it
	// finishes stay in PROVIDER_LOADING until the first pay attempt.
	go func() {
		if err := tossClient.Handshake(ctx); err != nil {
			log.Printf("payment provider handshake failed: %v", err)
		}
	}()

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	intents := intent.NewRedisStore(redisClient, cfg.IntentTTL)
	carts := cart.NewService(
		cart.NewMongoRepository(cartCollection),
		cart.NewRedisCache(redisClient),
	)

	checkoutService := service.NewCheckoutService(
		repo, backendClient, tossClient, carts, intents,
		cfg.DeliveryFee, cfg.PublicBaseURL,
	)

	poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	callbackHandler := h.NewCallbackHandler(checkoutService, cfg.FrontendBaseURL, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.BearerAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.BeginCheckout)
			r.Get("/{checkout_id}", checkoutHandler.GetCheckout)
			r.Post("/{checkout_id}/pay", checkoutHandler.Pay)
		})
	})

	r.Get("/payments/success", callbackHandler.Success)
	r.Get("/payments/fail", callbackHandler.Fail)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-bff"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("checkout BFF starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
