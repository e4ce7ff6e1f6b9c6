package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-retail-checkout.git/internal/config"
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
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	c := &payment.Confirmer{
		Orders:      &orders.Repo{DB: db},
		Ledger:      &inventory.PGLedger{DB: db},
		Redis:       rdb,
		Secret:      cfg.GatewaySecret,
		ServiceName: cfg.ServiceName + "-confirmer",
	}

	group := getenv("CONFIRMER_GROUP", "payment-confirmer")
	workers := mustAtoi(os.Getenv("CONFIRMER_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicPaymentResult, workers)

	go func() {
		log.Printf("confirmer started: group=%s topic=%s workers=%d", group, orders.TopicPaymentResult, workers)
		if err := cons.Start(ctx, c.HandleResult); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down confirmer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
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
