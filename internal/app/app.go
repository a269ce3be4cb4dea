package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliotech/library-service/internal/config"
	"github.com/bibliotech/library-service/internal/handler"
	"github.com/bibliotech/library-service/internal/repository"
	"github.com/bibliotech/library-service/internal/server"
	"github.com/bibliotech/library-service/internal/service"
	"github.com/bibliotech/library-service/internal/stats"
	"github.com/bibliotech/library-service/migrations"
	"github.com/bibliotech/library-service/pkg/kafka"
	"github.com/bibliotech/library-service/pkg/logger"
	"github.com/bibliotech/library-service/pkg/postgres"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	pub := service.NewNoopPublisher()
	var consumerClose func() error
	if len(cfg.Kafka.Addrs) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		pub = service.NewPublisher(producer, log)

		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.AuditConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		go kafka.Consume(consumer, stats.NewConsumer(repo.RecordEvent, log), kafka.EventsTopic)
		consumerClose = consumer.Close
	}

	guard := service.NewBookGuard(cfg.Policy.LockWait)

	authSvc := service.NewAuthService(repo, log)
	catalogSvc := service.NewCatalogService(repo, log)
	loanSvc := service.NewLoanService(repo, repo, repo, guard, pub, cfg.Policy, log)
	reservationSvc := service.NewReservationService(repo, guard, pub, log)
	fineSvc := service.NewFineService(repo, repo, pub, cfg.Policy, log)

	h := handler.New(authSvc, catalogSvc, loanSvc, reservationSvc, fineSvc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if consumerClose != nil {
		if err = consumerClose(); err != nil {
			log.Error("consumer close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
