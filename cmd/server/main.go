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

	"GoldMirror/internal/auth"
	"GoldMirror/internal/collector"
	"GoldMirror/internal/config"
	"GoldMirror/internal/notifier"
	"GoldMirror/internal/scheduler"
	"GoldMirror/internal/server"
	"GoldMirror/internal/store"
	"GoldMirror/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] GoldMirror starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env file")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init data sources, preferred first
	var sources []collector.Source
	if cfg.DataSource.BaseURL != "" {
		sources = append(sources, collector.NewRESTSource("rest", cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy))
	}
	sources = append(sources, collector.NewYahooSource(cfg.Proxy))
	if os.Getenv("USE_MOCK_DATA") == "true" {
		sources = []collector.Source{&collector.MockSource{BasePrice: 100}}
		log.Println("[WARN] USE_MOCK_DATA enabled, serving generated data")
	}
	chain := collector.NewChain(sources...)

	// Init ledger store
	if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("[FATAL] create data dir: %v", err)
		}
	}
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] init ledger store: %v", err)
	}
	defer st.Close()

	// Init strategy engine
	engine, err := strategy.NewEngine(cfg.Strategy, st, cfg.Symbols.Stock)
	if err != nil {
		log.Fatalf("[FATAL] init strategy engine: %v", err)
	}

	// Init auth validator
	var validator *auth.Validator
	if cfg.Database.AuthPath != "" {
		if dir := filepath.Dir(cfg.Database.AuthPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatalf("[FATAL] create auth dir: %v", err)
			}
		}
		validator, err = auth.NewValidator(cfg.Database.AuthPath)
		if err != nil {
			log.Printf("[WARN] init auth validator failed, auth disabled: %v", err)
		} else {
			defer validator.Close()
		}
	}

	// Init Telegram notifier
	var tn notifier.Notifier = notifier.NoopNotifier{}
	var telegram *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		tn = telegram
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, chain, engine, tn, cfg.Symbols.Benchmark, cfg.Symbols.Stock)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if telegram != nil {
		go telegram.StartPolling(ctx, sched.Commands())
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily task now")
		go sched.RunNow()
	}

	// Init API server
	api := &server.Server{
		Chain:     chain,
		Engine:    engine,
		Auth:      validator,
		Analyses:  st,
		Weights:   cfg.Similarity,
		Benchmark: cfg.Symbols.Benchmark,
		Stock:     cfg.Symbols.Stock,
		Watchlist: cfg.Symbols.Watchlist,
		Months:    cfg.DataSource.Months,
	}
	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	go func() {
		log.Printf("[INFO] api server listening on %s", cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] api server: %v", err)
		}
	}()

	log.Println("[INFO] GoldMirror is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] api server shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] GoldMirror stopped")
}
