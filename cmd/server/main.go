package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/gateway"
	"storefront/internal/realtime"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/store/memory"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// storage is satisfied by both the postgres and the in-memory store
type storage interface {
	service.ProductRepository
	service.OfferRepository
	service.InventoryRepository
	service.TransactionRepository
	service.UserRepository
	api.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront")

	tp, err := util.InitTracer(context.Background(), util.TracingOptions{
		ServiceName:    "storefront",
		Exporter:       cfg.Observ.TracingExporter,
		JaegerEndpoint: cfg.Observ.JaegerEndpoint,
		OTLPEndpoint:   cfg.Observ.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	var db storage
	switch cfg.Database.Driver {
	case "memory":
		mem := memory.NewStore()
		memory.Seed(mem)
		db = mem
		logger.Info("Using in-memory storage with demo catalog")
	default:
		pg, err := store.NewStore(cfg.Database.URL, store.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pg.Close()
		db = pg
		logger.Info("Database connected")
	}

	var idempotency service.IdempotencyStore
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Redis.IdempotencyTTL, redisclient.LockTTLFor(cfg.Gateway.Timeout))
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		idempotency = redisClient
		logger.Info("Redis connected")
	}

	hub := realtime.NewHub(cfg.Server.RealtimeBuffer)

	var notifier service.StockNotifier = hub
	var eventPublisher service.TransactionEventPublisher
	var stockWorker *worker.StockEventWorker

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.Kafka.Enabled {
		stockProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStockEvents)
		defer stockProducer.Close()
		notifier = broker.NewStockEventRelay(stockProducer, hub)

		transactionProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicTransactionEvent)
		defer transactionProducer.Close()
		eventPublisher = broker.NewEventPublisher(transactionProducer)

		// every instance needs every stock event, so each one consumes in its own group
		groupID := fmt.Sprintf("%s-%s", cfg.Kafka.ConsumerGroup, uuid.New().String()[:8])
		stockConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStockEvents, groupID)
		stockWorker = worker.NewStockEventWorker(stockConsumer, hub)
		go func() {
			if err := stockWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Stock event worker error", zap.Error(err))
			}
		}()
		logger.Info("Kafka relay initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	var paymentGateway service.PaymentGateway
	switch cfg.Gateway.Mode {
	case "http":
		paymentGateway = gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	default:
		paymentGateway = gateway.NewSimulator(cfg.Gateway.Delay, cfg.Gateway.ApprovalRate)
	}

	productService := service.NewProductService(db, db)
	inventoryService := service.NewInventoryService(db, notifier)
	userService := service.NewUserService(db)
	transactionService := service.NewTransactionService(
		db, db, productService, inventoryService,
		paymentGateway, eventPublisher, idempotency, cfg.Gateway.Timeout,
	)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(productService, transactionService, inventoryService, userService, hub, db)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	// streaming listeners never go idle on their own
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if stockWorker != nil {
		stockWorker.Stop()
	}

	logger.Info("Server exited")
}
