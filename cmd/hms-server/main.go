package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chxru/sem5-webdev/internal/config"
	"github.com/chxru/sem5-webdev/internal/crypto"
	"github.com/chxru/sem5-webdev/internal/database"
	httpapi "github.com/chxru/sem5-webdev/internal/http"
	"github.com/chxru/sem5-webdev/internal/logger"
	mqttpub "github.com/chxru/sem5-webdev/internal/mqtt"
	"github.com/chxru/sem5-webdev/internal/repository"
	"github.com/chxru/sem5-webdev/internal/service"
	"github.com/chxru/sem5-webdev/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "hms-server")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	key, err := cfg.DecodeEncryptionKey()
	if err != nil {
		log.Fatal("invalid encryption key", zap.Error(err))
	}
	codec, err := crypto.NewAESCodec(key)
	if err != nil {
		log.Fatal("failed to build document codec", zap.Error(err))
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var kv store.KV = store.NewRedisKV(redisClient)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("redis unreachable, bed board cache disabled", zap.Error(err))
		kv = nil
	}

	var sinks []service.EventSink
	if cfg.WebhookURL != "" {
		sinks = append(sinks, service.NewWebhookNotifier(cfg.WebhookURL, log))
	}
	var publisher *mqttpub.Publisher
	if cfg.MQTT.Enabled {
		publisher, err = mqttpub.NewPublisher(&cfg.MQTT)
		if err != nil {
			log.Warn("MQTT broker unreachable, ward display events disabled", zap.Error(err))
		} else {
			sinks = append(sinks, service.NewMQTTNotifier(publisher))
		}
	}

	patients := repository.NewPostgresPatientsRepository(db, codec)
	tickets := repository.NewPostgresBedTicketsRepository(db, codec)
	txm := repository.NewPostgresTxManager(db, codec)

	alloc := service.NewAllocationService(txm, tickets, kv, sinks, nil, cfg.TxTimeout, log)
	query := service.NewQueryService(patients, tickets, kv, log)

	router := httpapi.NewRouter(log)
	router.RegisterPatientRoutes(httpapi.NewPatientHandler(alloc, query, log))
	router.RegisterBedTicketRoutes(httpapi.NewBedTicketHandler(alloc, log))
	router.RegisterStatsRoutes(httpapi.NewStatsHandler(query, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if publisher != nil {
		publisher.Disconnect()
	}
}
