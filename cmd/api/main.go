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

	"github.com/ariefcatur/go-retail-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-retail-checkout.git/internal/config"
	"github.com/ariefcatur/go-retail-checkout.git/internal/httpx"
	"github.com/ariefcatur/go-retail-checkout.git/internal/imagestore"
	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-retail-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
	"github.com/ariefcatur/go-retail-checkout.git/internal/payment"
	"github.com/ariefcatur/go-retail-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-retail-checkout.git/internal/redisx"
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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for placed-order events
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Stores & service
	catalogRepo := &catalog.Repo{DB: db}
	ledger := &inventory.PGLedger{DB: db}
	orderRepo := &orders.Repo{DB: db}
	gateway := payment.NewClient(cfg.GatewayURL, cfg.GatewaySecret, cfg.GatewayTimeout)

	svc := &orders.Service{
		Catalog:        catalogRepo,
		Ledger:         ledger,
		Orders:         orderRepo,
		Gateway:        gateway,
		Producer:       prod,
		ServiceName:    cfg.ServiceName,
		GatewayTimeout: cfg.GatewayTimeout,
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: svc, Store: orderRepo, Redis: rdb}
	oh.Register(router)
	ph := &httpx.ProductsHandler{
		Catalog: catalogRepo,
		Ledger:  ledger,
		Images:  imagestore.New(cfg.ImageStoreURL),
	}
	ph.Register(router)

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
	prod.Close()
	cancel()
	prod.WaitClosed()
}
