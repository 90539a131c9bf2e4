// cmd/server — Paper trading engine.
//
// Simulates NSE equity prices with a random walk, runs the order lifecycle
// engine on a single event loop, serves the REST + WebSocket gateway and
// persists full state snapshots to SQLite after every mutation.
//
// Config (env vars, .env supported):
//
//	SQLITE_PATH        — database file            (default: "data/papertrade.db")
//	REDIS_ADDR         — quote/alert publisher    (default: "" = disabled)
//	GATEWAY_ADDR       — REST/WS listen address   (default: ":8080")
//	METRICS_ADDR       — /metrics + /healthz      (default: ":9090")
//	TICK_INTERVAL_MS   — price tick interval      (default: "3000")
//	INITIAL_CASH_PAISE — starting balance         (default: "100000000" = ₹10,00,000)
//	MARKET_ALWAYS_OPEN — ignore NSE session hours (default: "true")
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"papertradev1/config"
	"papertradev1/internal/engine"
	"papertradev1/internal/gateway"
	"papertradev1/internal/logger"
	"papertradev1/internal/markethours"
	"papertradev1/internal/metrics"
	"papertradev1/internal/model"
	"papertradev1/internal/notification"
	"papertradev1/internal/pricegen"
	redisstore "papertradev1/internal/store/redis"
	"papertradev1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[server] starting paper trading engine...")

	if err := godotenv.Load(); err == nil {
		log.Println("[server] loaded .env")
	}
	cfg := config.Load()
	logger.Init("papertrade", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store + state restore
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("[server] create data dir: %v", err)
		}
	}
	store, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[server] sqlite: %v", err)
	}
	defer store.Close()

	restore, err := store.LoadLatest()
	if err != nil {
		log.Fatalf("[server] load snapshot: %v", err)
	}
	if restore != nil {
		log.Printf("[server] resuming from snapshot saved at %s", restore.SavedAt.Format(time.RFC3339))
	}

	// Optional Redis quote/alert publisher
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Fatalf("[server] redis: %v", err)
		}
		defer publisher.Close()
	}

	// Metrics + health
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer metricsSrv.Stop(context.Background())

	if publisher != nil {
		health.StartLivenessChecker(ctx, publisher.Client(), store.DB(), 15*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, store.DB(), 15*time.Second)
	}

	// WebSocket hub; it doubles as a notifier so alerts stream to clients
	hub := gateway.NewHub(m)

	notifiers := notification.Multi{notification.NewLogNotifier(), hub}
	if publisher != nil {
		notifiers = append(notifiers, publisher)
	}

	seed := cfg.PriceSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	eng := engine.New(engine.Options{
		InitialCash: cfg.InitialCashPaise,
		Instruments: pricegen.Catalog(),
		Session:     markethours.Session{AlwaysOpen: cfg.MarketAlwaysOpen},
		Walker:      pricegen.New(seed),
		Store:       store,
		Notifier:    notifiers,
		Metrics:     m,
		Restore:     restore,
		OnTick: func(quotes []model.Instrument) {
			health.SetLastTickTime(time.Now())
			hub.BroadcastQuotes(quotes)
			if publisher != nil {
				pubCtx, pubCancel := context.WithTimeout(ctx, 2*time.Second)
				publisher.PublishQuotes(pubCtx, quotes)
				pubCancel()
			}
		},
	})

	go eng.Run(ctx)
	eng.StartTicker(ctx, time.Duration(cfg.TickIntervalMS)*time.Millisecond)

	// Day roll at NSE market open on trading days
	sched := cron.New(cron.WithLocation(markethours.IST))
	if _, err := sched.AddFunc("15 9 * * 1-5", func() {
		if !markethours.IsTradingDay(time.Now().In(markethours.IST)) {
			return
		}
		rollCtx, rollCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer rollCancel()
		if err := eng.DayRoll(rollCtx); err != nil {
			log.Printf("[server] day roll error: %v", err)
		}
	}); err != nil {
		log.Fatalf("[server] cron: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// REST + WS gateway
	api := gateway.NewAPI(eng, hub)
	srv := &http.Server{Addr: cfg.GatewayAddr, Handler: api.Routes()}
	go func() {
		log.Printf("[server] gateway listening on %s", cfg.GatewayAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[server] gateway error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[server] shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
