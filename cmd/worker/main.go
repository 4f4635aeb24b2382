package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/config"
	kafkax "github.com/janhvii19/Inventory-Order-Management-System/internal/kafka"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/redisx"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &worker.Analytics{
		Store:             worker.RedisStore{R: rdb},
		ServiceName:       cfg.ServiceName + "-analytics",
		LowStockThreshold: cfg.LowStockThreshold,
	}

	group := getenv("ANALYTICS_GROUP", "analytics-svc")
	workers := mustAtoi(os.Getenv("ANALYTICS_WORKERS"), 4)

	topics := []string{
		orders.TopicOrderCreated,
		orders.TopicOrderUpdated,
		orders.TopicOrderCanceled,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		topic := topic
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		g.Go(func() error {
			log.Printf("analytics consumer started: group=%s topic=%s workers=%d", group, topic, workers)
			return cons.Start(gctx, svc.Handle)
		})
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down consumers...")
		cancel()
	}()

	if err := g.Wait(); err != nil {
		log.Printf("consumer exit: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
