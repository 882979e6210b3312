package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bessima/fieldops/internal/clients/ingest"
	"github.com/Bessima/fieldops/internal/clients/routing"
	"github.com/Bessima/fieldops/internal/config"
	"github.com/Bessima/fieldops/internal/config/db"
	"github.com/Bessima/fieldops/internal/events"
	"github.com/Bessima/fieldops/internal/guard"
	"github.com/Bessima/fieldops/internal/handlers"
	"github.com/Bessima/fieldops/internal/metrics"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/notify"
	"github.com/Bessima/fieldops/internal/repository"
	"github.com/Bessima/fieldops/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf := config.InitConfig()
	if err := logger.Initialize(conf.LogLevel); err != nil {
		logger.Log.Warn(err.Error())
	}
	defer logger.Log.Sync()

	storage, err := db.NewDB(rootCtx, conf.DatabaseDNS)
	if err != nil {
		return err
	}
	defer storage.Close()

	registry := metrics.NewRegistry()
	workOrders := repository.NewWorkOrderRepository(storage)

	serverService := service.NewServerService(rootCtx, conf.Address, storage)
	var health []service.Pinger

	importOptions := []service.ImportOption{
		service.WithMetrics(registry),
		service.WithChunkSize(conf.ImportChunkSize),
		service.WithNotifier(newNotifier(rootCtx, conf)),
	}

	if conf.RedisAddress != "" {
		redisGuard := guard.NewRedisGuard(guard.NewRedisClient(conf.RedisAddress), guard.DefaultTTL)
		importOptions = append(importOptions, service.WithGuard(redisGuard))
		health = append(health, redisGuard)
	} else {
		importOptions = append(importOptions, service.WithGuard(guard.NewMemoryGuard(guard.DefaultTTL)))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if conf.KafkaBrokers != "" {
		kafkaPublisher := events.NewKafkaPublisher(conf.KafkaBrokers, conf.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}
	importOptions = append(importOptions, service.WithPublisher(publisher))

	// Синхронизация маршрутов всегда пишет в собственную базу.
	storeImporter := service.NewImportService(ingest.NewSubmitter(service.NewStoreTransport(workOrders)), importOptions...)

	var importer service.ImportServiceI = storeImporter
	if conf.ImportAddress != "" {
		transport := ingest.NewHTTPTransport(conf.ImportAddress, conf.ImportAPIKey)
		importer = service.NewImportService(ingest.NewSubmitter(transport), importOptions...)
		logger.Log.Info("Bulk import goes to remote endpoint", zap.String("address", conf.ImportAddress))
	}

	if conf.JWTSecret == "" {
		logger.Log.Warn("JWT_SECRET is empty, every /api request will be rejected")
	}
	auth := handlers.NewAuthHandler(&handlers.JWTConfig{SecretKey: conf.JWTSecret, TokenTTL: time.Hour})

	serverService.SetRouter(service.RouterDependencies{
		Importer:  importer,
		Orders:    service.NewOrderService(workOrders, registry),
		Reviewer:  service.NewReviewService(workOrders, publisher, registry),
		Routes:    service.NewRouteService(routing.NewRoutingClient(conf.RoutingAddress, conf.RoutingAPIKey), storeImporter),
		Validator: auth,
		Metrics:   registry,
		Health:    health,
	})

	serverErr := make(chan error, 1)
	logger.Log.Info("Running Server on", zap.String("address", conf.Address))
	go serverService.RunServer(&serverErr)

	// Ждем сигнал завершения или ошибку сервера
	select {
	case <-rootCtx.Done():
		logger.Log.Info("Received shutdown signal, shutting down.")
	case err = <-serverErr:
		logger.Log.Error("Server error", zap.Error(err))
	}

	if shutdownErr := serverService.Shutdown(); shutdownErr != nil {
		logger.Log.Error("Server shutdown error", zap.Error(shutdownErr))
	}

	return err
}

func newNotifier(ctx context.Context, conf *config.Config) notify.Notifier {
	if conf.SNSTopicARN == "" {
		return notify.LogNotifier{}
	}

	snsNotifier, err := notify.NewSNSNotifier(ctx, conf.AWSRegion, conf.SNSTopicARN)
	if err != nil {
		logger.Log.Warn("SNS notifier is disabled", zap.Error(err))
		return notify.LogNotifier{}
	}
	return notify.MultiNotifier{notify.LogNotifier{}, snsNotifier}
}
