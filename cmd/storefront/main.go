package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/domain"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(lg)

	ctx := context.Background()

	// Database setup
	creds := &repository.Credentials{
		Driver:   cfg.DB.Driver,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.Name,
		Path:     cfg.DB.Path,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	lg.Info("database migrations completed", "driver", repo.Driver())

	// Catalog backend
	var (
		backend catalog.Provider
		mongoDB *mongo.Database
	)
	switch cfg.CatalogBackend {
	case config.CatalogMongo:
		mongoDB, err = catalog.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Client().Disconnect(context.Background())
		backend = catalog.NewMongoProvider(mongoDB)
		lg.Info("catalog backend: mongodb", "uri", cfg.MongoURI, "database", cfg.MongoDBName)
	default:
		backend = catalog.NewSQLProvider(repo.DB())
		lg.Info("catalog backend: sql")
	}

	breakerCfg := circuitbreaker.DefaultConfig("catalog")
	breakerCfg.ConsecutiveFailures = cfg.BreakerFailures
	breakerCfg.Timeout = cfg.BreakerTimeout

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	lg.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	products := catalog.NewCached(
		catalog.NewGuarded(backend, breakerCfg, lg),
		cache.NewRedisCache(redisClient, cfg.CacheTTL),
	)

	// Engines
	carts := service.NewCartService(repo, products)
	orders := service.NewOrderService(repo)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics("shop", serviceName, reg)

	router := h.NewRouter(h.RouterDeps{
		Carts: h.NewCartHandler(carts, cfg.RequestTimeout),
		Orders: h.NewOrderHandler(orders, cfg.RequestTimeout, func(*domain.Order) {
			m.OrdersCreated.Inc()
		}),
		Session: h.SessionConfig{
			CookieName: cfg.SessionCookieName,
			MaxAge:     cfg.SessionCookieMaxAge,
			Secure:     cfg.SessionCookieSecure,
		},
		AdminAPIKey:    cfg.AdminAPIKey,
		Metrics:        m,
		MetricsHandler: metrics.Handler(reg),
		Logger:         lg,
		RequestTimeout: cfg.RequestTimeout,
	})
	if cfg.AdminAPIKey == "" {
		lg.Warn("ADMIN_API_KEY is not set, admin routes will reject every request")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health + reflection for probes and grpcurl
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	// Outbox relay
	writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
	poller := publisher.NewOutboxPoller(repo, writer, publisher.Config{
		Interval:  cfg.OutboxPollInterval,
		BatchSize: cfg.OutboxBatchSize,
	}, lg)

	pollCtx, stopPoller := context.WithCancel(ctx)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		lg.Info("outbox poller started", "topic", cfg.KafkaTopic, "interval", cfg.OutboxPollInterval.String())
		poller.Run(pollCtx)
	}()

	go func() {
		lg.Info("grpc server listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	go func() {
		lg.Info("http server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down storefront...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http server forced to shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	stopPoller()
	<-pollerDone
	if err := poller.Close(); err != nil {
		lg.Error("failed to close kafka writer", "error", err)
	}

	lg.Info("storefront stopped")
}
