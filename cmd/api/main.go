package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/auth"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/config"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/httpx"
	kafkax "github.com/janhvii19/Inventory-Order-Management-System/internal/kafka"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/postgres"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// One producer per order topic; the analytics worker consumes them.
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pUpdated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderUpdated, 1024)
	pUpdated.Start(ctx)
	pCanceled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCanceled, 1024)
	pCanceled.Start(ctx)

	issuer := auth.Issuer{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}
	repo := &orders.Repo{DB: db, LowStockThreshold: cfg.LowStockThreshold}
	lifecycle := &orders.Lifecycle{DB: db}

	router := httpx.NewRouter()
	(&httpx.AuthHandler{Repo: &auth.Repo{DB: db}, Issuer: issuer}).Register(router)

	router.Group(func(r chi.Router) {
		r.Use(httpx.RequireAuth(issuer))
		(&httpx.ProductsHandler{Repo: repo, Redis: rdb}).Register(r)
		(&httpx.CustomersHandler{Repo: repo}).Register(r)
		(&httpx.OrdersHandler{
			Store:     repo,
			Lifecycle: lifecycle,
			Created:   pCreated,
			Updated:   pUpdated,
			Canceled:  pCanceled,
			Service:   cfg.ServiceName,
		}).Register(r)
		(&httpx.DashboardHandler{Redis: rdb}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	cancel() // stop producer loops; they flush their inboxes
	pCreated.WaitClosed()
	pUpdated.WaitClosed()
	pCanceled.WaitClosed()
}
