package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pickup-orders.git/internal/config"
	"github.com/ariefcatur/go-pickup-orders.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-pickup-orders.git/internal/kafka"
	"github.com/ariefcatur/go-pickup-orders.git/internal/orders"
	"github.com/ariefcatur/go-pickup-orders.git/internal/payments"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (multi-topic)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Engine
	repo := &orders.Repo{DB: db}
	oh := &httpx.OrdersHandler{
		Repo:      repo,
		Stock:     &orders.StockLedger{DB: db},
		Lifecycle: &orders.Lifecycle{DB: db, Repo: repo},
		Payments:  &payments.Store{DB: db},
		Producer:  prod,
		Redis:     rdb,
		Service:   cfg.ServiceName,
		StatsTTL:  time.Duration(cfg.StatsTTLSec) * time.Second,
	}
	router := httpx.NewRouter()
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // tutup inbox -> flush & close writer
	prod.WaitClosed()
}
