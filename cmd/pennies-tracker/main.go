// Command pennies-tracker syncs a TikTok creator's feed into a JSON library.
//
// With no flags it performs a single sync and exits. With -schedule (or the
// schedule config setting) it stays resident and reruns the sync on a cron
// schedule, skipping a tick if the previous run is still going.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/HectorTries/pennies-tracker/internal/config"
	"github.com/HectorTries/pennies-tracker/internal/retry"
	"github.com/HectorTries/pennies-tracker/internal/storage"
	syncer "github.com/HectorTries/pennies-tracker/internal/sync"
	"github.com/HectorTries/pennies-tracker/internal/tiktok"
	"github.com/HectorTries/pennies-tracker/internal/transcribe"
)

func main() {
	schedule := flag.String("schedule", "", "cron expression for recurring runs (default: run once)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		if err := runOnce(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runScheduled(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runOnce performs a single sync run against the configured creator.
func runOnce(ctx context.Context, cfg *config.Config) error {
	store, err := storage.NewJSONStore(cfg.OutputPath, cfg.Creator)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()

	engine := buildEngine(cfg, store)

	report, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	return nil
}

// runScheduled reruns the sync on a cron schedule until interrupted.
// Overlapping runs are skipped rather than queued.
func runScheduled(ctx context.Context, cfg *config.Config) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(cfg.Schedule, func() {
		if err := runOnce(ctx, cfg); err != nil {
			log.Printf("scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	log.Printf("scheduler started for @%s with schedule: %s", cfg.Creator, cfg.Schedule)
	c.Start()

	<-ctx.Done()
	log.Printf("scheduler stopped")
	// Let an in-flight save finish instead of truncating it.
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
	}
	return ctx.Err()
}

// buildEngine wires the collaborators from configuration.
func buildEngine(cfg *config.Config, store storage.LibraryStore) *syncer.Engine {
	retryCfg := retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
		JitterFraction: 0.2,
	}

	lister := tiktok.NewYtdlpLister()
	lister.Path = cfg.YtdlpPath
	lister.Timeout = cfg.ListTimeout
	lister.Limiter = rate.NewLimiter(rate.Limit(cfg.ListRPS), 1)
	lister.RetryConfig = &retryCfg

	fetcher := tiktok.NewYtdlpFetcher(cfg.DataDir)
	fetcher.Path = cfg.YtdlpPath
	fetcher.Timeout = cfg.FetchTimeout

	transcriber := transcribe.NewWhisperTranscriber(cfg.OpenAIAPIKey, cfg.TranscribeTimeout)
	if !transcriber.Configured() {
		log.Printf("OPENAI_API_KEY not set, transcription disabled")
	}

	engine := syncer.New(lister, fetcher, transcriber, store, cfg.Creator)
	engine.MaxPerRun = cfg.MaxPerRun
	return engine
}
