package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-store-fulfillment.git/internal/config"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-store-fulfillment.git/internal/kafka"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/orders"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/postgres"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/redisx"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/stock"
	"github.com/joho/godotenv"
)

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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producers: finalized & released (dua topic berbeda)
	pFin := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockFinalized, 1024)
	pFin.Start(ctx)
	pRel := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockReleased, 1024)
	pRel.Start(ctx)

	// Service
	svc := &fulfillment.Service{
		Tracker: &fulfillment.Tracker{
			Orders: &orders.Repo{DB: db},
			Ledger: &stock.Ledger{DB: db},
		},
		Redis:             rdb,
		ProducerFinalized: pFin,
		ProducerReleased:  pRel,
		ServiceName:       cfg.ServiceName + "-fulfillment",
	}

	// Consumer
	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := mustAtoi(os.Getenv("FULFILLMENT_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderStatusChanged, workers)

	go func() {
		log.Printf("fulfillment consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderStatusChanged, workers)
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pFin.Close()
	pRel.Close()
	pFin.WaitClosed()
	pRel.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
