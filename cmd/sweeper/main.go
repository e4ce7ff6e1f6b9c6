package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-retail-checkout.git/internal/config"
	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
	"github.com/ariefcatur/go-retail-checkout.git/internal/payment"
	"github.com/ariefcatur/go-retail-checkout.git/internal/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	s := &payment.Sweeper{
		Orders:   &orders.Repo{DB: db},
		Ledger:   &inventory.PGLedger{DB: db},
		TTL:      cfg.PendingTTL,
		Interval: cfg.SweepInterval,
	}

	go func() {
		log.Printf("sweeper started: ttl=%s interval=%s", cfg.PendingTTL, cfg.SweepInterval)
		s.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down sweeper...")
	cancel()
}
