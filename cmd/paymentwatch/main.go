package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pickup-orders.git/internal/config"
	kafkax "github.com/ariefcatur/go-pickup-orders.git/internal/kafka"
	"github.com/ariefcatur/go-pickup-orders.git/internal/orders"
	"github.com/ariefcatur/go-pickup-orders.git/internal/payments"
	"github.com/ariefcatur/go-pickup-orders.git/internal/paymentwatch"
	"github.com/ariefcatur/go-pickup-orders.git/internal/postgres"
	"github.com/ariefcatur/go-pickup-orders.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer untuk event pembatalan hasil laporan gateway
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Service
	repo := &orders.Repo{DB: db}
	svc := &paymentwatch.Service{
		Store:       &payments.Store{DB: db},
		Lifecycle:   &orders.Lifecycle{DB: db, Repo: repo},
		Redis:       rdb,
		Producer:    prod,
		ServiceName: cfg.ServiceName + "-paymentwatch",
	}

	// Consumer
	group := getenv("PAYMENTWATCH_GROUP", "paymentwatch-svc")
	workers := mustAtoi(os.Getenv("PAYMENTWATCH_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicPaymentUpdated, workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("paymentwatch consumer started: group=%s topic=%s workers=%d", group, orders.TopicPaymentUpdated, workers)
		if err := cons.Start(ctx, svc.HandlePaymentUpdated); err != nil {
			log.Printf("consumer exit: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	<-done
	prod.Close()
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
