package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-store-fulfillment.git/internal/config"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/mailer"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/notify"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/postgres"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/promotions"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/redisx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
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

	// SMTP client dibuat sekali, dipakai semua sweep
	smtp, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		log.Fatalf("smtp: %v", err)
	}

	sw := &promotions.Sweeper{
		Store:      &promotions.PgStore{DB: db},
		Mailer:     smtp,
		Templates:  &mailer.TemplateStore{DB: db},
		Notifier:   &notify.Repo{DB: db, AdminRole: cfg.AdminRole},
		Lock:       &redisx.SweepLock{R: rdb},
		StoreEmail: cfg.StoreEmail,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runEvery(gctx, cfg.SweepInterval, sw.RunStartSweep) })
	g.Go(func() error { return runEvery(gctx, cfg.SweepInterval, sw.RunEndSweep) })

	log.Printf("promotion sweeper started: interval=%s", cfg.SweepInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down sweeper...")
	cancel()
	_ = g.Wait()
}

// runEvery runs fn once right away, then on every tick until ctx ends.
// A failed pass is already logged inside the sweep; the loop keeps going.
func runEvery(ctx context.Context, every time.Duration, fn func(context.Context) error) error {
	_ = fn(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			_ = fn(ctx)
		}
	}
}
