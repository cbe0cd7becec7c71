package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"GoldMirror/internal/collector"
	"GoldMirror/internal/notifier"
	"GoldMirror/internal/strategy"
)

// Scheduler runs the daily strategy cycle on a cron schedule and
// answers operator commands.
type Scheduler struct {
	Cron      *cron.Cron
	Chain     *collector.Chain
	Engine    *strategy.Engine
	Notifier  notifier.Notifier
	Benchmark string
	Stock     string
	Ctx       context.Context
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, chain *collector.Chain, engine *strategy.Engine, n notifier.Notifier, benchmark, stock string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Chain:     chain,
		Engine:    engine,
		Notifier:  n,
		Benchmark: benchmark,
		Stock:     stock,
		Ctx:       ctx,
	}
}

// Register schedules the daily strategy run.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the daily task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily strategy task")

	goldCur, goldPrev, err := s.Chain.LatestQuote(s.Benchmark)
	if err != nil {
		log.Printf("[ERROR] daily task: benchmark quote: %v", err)
		s.trySend(fmt.Sprintf("❌ benchmark quote failed: %v", err))
		return
	}
	stockCur, _, err := s.Chain.LatestQuote(s.Stock)
	if err != nil {
		log.Printf("[ERROR] daily task: stock quote: %v", err)
		s.trySend(fmt.Sprintf("❌ stock quote failed: %v", err))
		return
	}

	result, err := s.Engine.Execute(strategy.Snapshot{
		Date:          time.Now().UTC(),
		GoldPrice:     goldCur,
		PrevGoldPrice: goldPrev,
		StockPrice:    stockCur,
	})
	if errors.Is(err, strategy.ErrTradedToday) {
		log.Println("[INFO] daily task: already traded today, skipping")
		return
	}
	if err != nil {
		log.Printf("[ERROR] daily task: execute: %v", err)
		s.trySend(fmt.Sprintf("❌ strategy run failed: %v", err))
		return
	}
	s.trySend(notifier.FormatTradeReport(s.Stock, result))
}

// Commands builds the operator command table served by the Telegram
// poller.
func (s *Scheduler) Commands() *notifier.CommandMux {
	mux := notifier.NewCommandMux()
	mux.Handle("/run", func(string) string {
		s.dailyTask()
		return ""
	})
	mux.Handle("/status", func(string) string {
		price, _, err := s.Chain.LatestQuote(s.Stock)
		if err != nil {
			log.Printf("[WARN] status command: quote failed: %v", err)
			price = 0
		}
		return notifier.FormatStatus(s.Stock, s.Engine.Status(price))
	})
	mux.Handle("/summary", func(string) string {
		return notifier.FormatSummary(s.Engine.Summary())
	})
	mux.Fallback(func(string) string {
		return "Commands:\n• /run\n• /status\n• /summary"
	})
	return mux
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
