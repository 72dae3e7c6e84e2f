// Package sync implements the incremental sync pipeline: decide which
// remote videos are new, process each one, and merge the results into the
// persisted library without duplicating or losing existing records.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/HectorTries/pennies-tracker/internal/storage"
	"github.com/HectorTries/pennies-tracker/internal/tiktok"
	"github.com/HectorTries/pennies-tracker/internal/transcribe"
)

// Engine orchestrates listing, fetching, and transcription against the
// persisted library. One Run is single-threaded and owns the in-memory
// library from load to final save.
type Engine struct {
	lister      tiktok.VideoLister
	fetcher     tiktok.AudioFetcher
	transcriber transcribe.Transcriber
	store       storage.LibraryStore

	// Creator is the handle whose feed is synced.
	Creator string

	// MaxPerRun caps how many unseen videos one run processes. 0 = unlimited.
	MaxPerRun int
}

// New creates a sync engine over the given collaborators.
func New(lister tiktok.VideoLister, fetcher tiktok.AudioFetcher, transcriber transcribe.Transcriber, store storage.LibraryStore, creator string) *Engine {
	return &Engine{
		lister:      lister,
		fetcher:     fetcher,
		transcriber: transcriber,
		store:       store,
		Creator:     creator,
	}
}

// Report summarizes one sync run.
type Report struct {
	// RunID uniquely identifies this run in logs.
	RunID string
	// Creator is the handle that was synced.
	Creator string
	// CandidatesSeen is how many videos the listing returned.
	CandidatesSeen int
	// NewVideos is how many previously-unseen videos were recorded.
	NewVideos int
	// Transcribed is how many new videos got a transcript.
	Transcribed int
	// FetchFailures counts per-item audio download failures.
	FetchFailures int
	// TranscribeFailures counts per-item transcription failures.
	TranscribeFailures int
	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Summary returns a one-line human-readable account of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("sync @%s: %d candidates, %d new, %d transcribed, %d fetch failures, %d transcribe failures in %s",
		r.Creator, r.CandidatesSeen, r.NewVideos, r.Transcribed,
		r.FetchFailures, r.TranscribeFailures, r.Duration.Round(time.Millisecond))
}

// Run performs one complete sync: load state, list candidates, process each
// unseen video in listing order, and persist.
//
// A listing failure is not fatal: the remote source is known to block and
// rate-limit, so an unreachable feed means zero new videos this run. Per-item
// failures degrade that item to a record without a transcript and never abort
// the batch. The only fatal errors are a corrupt library on load and a failed
// save.
//
// State is checkpointed after every processed video, so an interrupted run
// keeps the progress it made.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:   uuid.NewString(),
		Creator: e.Creator,
	}

	lib, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	known := lib.KnownIDs()

	log.Printf("sync: run %s for @%s, %d videos known", report.RunID, e.Creator, len(lib.Videos))

	candidates, err := e.lister.ListVideos(ctx, e.Creator)
	if err != nil {
		log.Printf("sync: listing failed, continuing with zero candidates: %v", err)
		candidates = nil
	}
	report.CandidatesSeen = len(candidates)

	for _, candidate := range candidates {
		if known[candidate.ID] {
			continue
		}
		if e.MaxPerRun > 0 && report.NewVideos >= e.MaxPerRun {
			break
		}

		rec := e.process(ctx, candidate, report)

		lib.Prepend(rec)
		known[rec.ID] = true
		report.NewVideos++

		// Checkpoint: the collaborators are slow and unreliable, so a
		// killed run must keep the videos already processed.
		if err := e.store.Save(ctx, lib); err != nil {
			return nil, fmt.Errorf("checkpoint save: %w", err)
		}
	}

	if err := e.store.Save(ctx, lib); err != nil {
		return nil, fmt.Errorf("save library: %w", err)
	}

	report.Duration = time.Since(start)
	log.Printf("sync: %s", report.Summary())
	return report, nil
}

// process fetches and transcribes one candidate, degrading to a record with
// a nil transcript on any failure.
func (e *Engine) process(ctx context.Context, candidate tiktok.VideoInfo, report *Report) storage.VideoRecord {
	log.Printf("sync: processing %s (%s)", candidate.ID, candidate.Title)

	rec := storage.VideoRecord{
		ID:        candidate.ID,
		Title:     candidate.Title,
		URL:       candidate.URL,
		ScrapedAt: time.Now(),
	}

	audioPath, err := e.fetcher.Fetch(ctx, candidate.URL, candidate.ID)
	if err != nil {
		report.FetchFailures++
		log.Printf("sync: fetch %s: %v", candidate.ID, err)
		return rec
	}

	if e.transcriber == nil || !e.transcriber.Configured() {
		return rec
	}

	text, err := e.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if !errors.Is(err, transcribe.ErrNotConfigured) {
			report.TranscribeFailures++
			log.Printf("sync: transcribe %s: %v", candidate.ID, err)
		}
		return rec
	}

	rec.Transcript = &text
	report.Transcribed++
	return rec
}
