package sync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/HectorTries/pennies-tracker/internal/storage"
	"github.com/HectorTries/pennies-tracker/internal/tiktok"
	"github.com/HectorTries/pennies-tracker/internal/transcribe"
)

// fakeLister returns a fixed listing, or an error.
type fakeLister struct {
	videos []tiktok.VideoInfo
	err    error
}

func (f *fakeLister) ListVideos(ctx context.Context, creator string) ([]tiktok.VideoInfo, error) {
	return f.videos, f.err
}

// fakeFetcher succeeds unless the video ID is in failIDs.
type fakeFetcher struct {
	failIDs map[string]bool
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, id string) (string, error) {
	f.calls = append(f.calls, id)
	if f.failIDs[id] {
		return "", tiktok.ErrFetchFailed
	}
	return filepath.Join("testdata", id+".mp3"), nil
}

// fakeTranscriber returns a fixed transcript, or an error.
type fakeTranscriber struct {
	text       string
	err        error
	configured bool
	calls      int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriber) Configured() bool { return f.configured }

// countingStore wraps a real JSONStore and counts saves.
type countingStore struct {
	storage.LibraryStore
	saves int
}

func (c *countingStore) Save(ctx context.Context, lib *storage.Library) error {
	c.saves++
	return c.LibraryStore.Save(ctx, lib)
}

func newTestStore(t *testing.T, creator string) *countingStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videos.json")
	store, err := storage.NewJSONStore(path, creator)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return &countingStore{LibraryStore: store}
}

func candidates(ids ...string) []tiktok.VideoInfo {
	videos := make([]tiktok.VideoInfo, 0, len(ids))
	for _, id := range ids {
		videos = append(videos, tiktok.VideoInfo{
			ID:    id,
			Title: "Video " + id,
			URL:   tiktok.VideoURL("alice", id),
		})
	}
	return videos
}

func TestRun_SingleNewVideo(t *testing.T) {
	// Empty store, one candidate, fetch succeeds, transcription disabled:
	// exactly one record with a null transcript and last_updated set.
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: []tiktok.VideoInfo{
		{ID: "v1", Title: "Hi", URL: "https://x/v1"},
	}}
	fetcher := &fakeFetcher{}
	transcriber := &fakeTranscriber{configured: false}

	engine := New(lister, fetcher, transcriber, store, "alice")
	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.CandidatesSeen != 1 {
		t.Errorf("CandidatesSeen = %d, want 1", report.CandidatesSeen)
	}
	if report.NewVideos != 1 {
		t.Errorf("NewVideos = %d, want 1", report.NewVideos)
	}
	if transcriber.calls != 0 {
		t.Errorf("transcriber called %d times, want 0 when unconfigured", transcriber.calls)
	}

	lib, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(lib.Videos) != 1 {
		t.Fatalf("videos len = %d, want 1", len(lib.Videos))
	}
	rec := lib.Videos[0]
	if rec.ID != "v1" {
		t.Errorf("rec.ID = %q, want v1", rec.ID)
	}
	if rec.Transcript != nil {
		t.Errorf("rec.Transcript = %v, want nil", *rec.Transcript)
	}
	if rec.ScrapedAt.IsZero() {
		t.Error("rec.ScrapedAt is zero, want set")
	}
	if lib.LastUpdated == nil {
		t.Error("lib.LastUpdated = nil, want set")
	}
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("a", "b", "c")}

	engine := New(lister, &fakeFetcher{}, &fakeTranscriber{configured: false}, store, "alice")

	if _, err := engine.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	firstLib, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.NewVideos != 0 {
		t.Errorf("second run NewVideos = %d, want 0", report.NewVideos)
	}

	secondLib, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(secondLib.Videos) != len(firstLib.Videos) {
		t.Errorf("videos len after second run = %d, want %d",
			len(secondLib.Videos), len(firstLib.Videos))
	}

	seen := map[string]int{}
	for _, v := range secondLib.Videos {
		seen[v.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("id %q appears %d times, want 1", id, n)
		}
	}
}

func TestRun_PrependOrder(t *testing.T) {
	// Candidates [a, b, c] are prepended one by one, so the library
	// ends up [c, b, a].
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("a", "b", "c")}

	engine := New(lister, &fakeFetcher{}, &fakeTranscriber{configured: false}, store, "alice")
	if _, err := engine.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lib, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(lib.Videos) != len(want) {
		t.Fatalf("videos len = %d, want %d", len(lib.Videos), len(want))
	}
	for i, id := range want {
		if lib.Videos[i].ID != id {
			t.Errorf("Videos[%d].ID = %q, want %q", i, lib.Videos[i].ID, id)
		}
	}

	// New videos from a later run land in front of the existing ones
	lister.videos = candidates("a", "b", "c", "d")
	if _, err := engine.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	lib, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if lib.Videos[0].ID != "d" {
		t.Errorf("Videos[0].ID = %q, want d", lib.Videos[0].ID)
	}
}

func TestRun_FetchFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("good", "bad")}
	fetcher := &fakeFetcher{failIDs: map[string]bool{"bad": true}}
	transcriber := &fakeTranscriber{text: "words", configured: true}

	engine := New(lister, fetcher, transcriber, store, "alice")
	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.NewVideos != 2 {
		t.Errorf("NewVideos = %d, want 2 (failed fetch still recorded)", report.NewVideos)
	}
	if report.FetchFailures != 1 {
		t.Errorf("FetchFailures = %d, want 1", report.FetchFailures)
	}
	if report.Transcribed != 1 {
		t.Errorf("Transcribed = %d, want 1", report.Transcribed)
	}

	lib, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	byID := map[string]storage.VideoRecord{}
	for _, v := range lib.Videos {
		byID[v.ID] = v
	}

	bad, ok := byID["bad"]
	if !ok {
		t.Fatal("record for failed fetch is missing")
	}
	if bad.Transcript != nil {
		t.Errorf("bad.Transcript = %v, want nil", *bad.Transcript)
	}

	good, ok := byID["good"]
	if !ok {
		t.Fatal("record for successful fetch is missing")
	}
	if good.Transcript == nil || *good.Transcript != "words" {
		t.Errorf("good.Transcript = %v, want %q", good.Transcript, "words")
	}
}

func TestRun_TranscriptionFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("v1")}
	transcriber := &fakeTranscriber{
		err:        &transcribe.TranscribeError{Path: "x", Err: errors.New("api down")},
		configured: true,
	}

	engine := New(lister, &fakeFetcher{}, transcriber, store, "alice")
	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.NewVideos != 1 {
		t.Errorf("NewVideos = %d, want 1", report.NewVideos)
	}
	if report.TranscribeFailures != 1 {
		t.Errorf("TranscribeFailures = %d, want 1", report.TranscribeFailures)
	}

	lib, _ := store.Load(ctx)
	if lib.Videos[0].Transcript != nil {
		t.Errorf("Transcript = %v, want nil after transcription failure", *lib.Videos[0].Transcript)
	}
}

func TestRun_ProviderFailureSucceeds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{err: &tiktok.ListerError{Creator: "alice", Err: tiktok.ErrRateLimited}}

	engine := New(lister, &fakeFetcher{}, &fakeTranscriber{}, store, "alice")
	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil when provider fails", err)
	}
	if report.CandidatesSeen != 0 || report.NewVideos != 0 {
		t.Errorf("report = %+v, want zero candidates and zero new", report)
	}

	// last_updated still refreshes on a zero-new-items run
	lib, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if lib.LastUpdated == nil {
		t.Error("lib.LastUpdated = nil, want refreshed")
	}
}

func TestRun_EmptyProviderSucceeds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{}

	engine := New(lister, &fakeFetcher{}, &fakeTranscriber{}, store, "alice")
	if _, err := engine.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil for empty listing", err)
	}
}

func TestRun_DuplicateCandidatesInBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("x", "x", "y")}
	fetcher := &fakeFetcher{}

	engine := New(lister, fetcher, &fakeTranscriber{}, store, "alice")
	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.NewVideos != 2 {
		t.Errorf("NewVideos = %d, want 2", report.NewVideos)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetch calls = %v, want one per unique id", fetcher.calls)
	}

	lib, _ := store.Load(ctx)
	if len(lib.Videos) != 2 {
		t.Errorf("videos len = %d, want 2", len(lib.Videos))
	}
}

func TestRun_MaxPerRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("a", "b", "c", "d")}

	engine := New(lister, &fakeFetcher{}, &fakeTranscriber{}, store, "alice")
	engine.MaxPerRun = 2

	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.NewVideos != 2 {
		t.Errorf("NewVideos = %d, want 2 with MaxPerRun=2", report.NewVideos)
	}

	// The next run picks up the remainder
	report, err = engine.Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.NewVideos != 2 {
		t.Errorf("second run NewVideos = %d, want 2", report.NewVideos)
	}

	lib, _ := store.Load(ctx)
	if len(lib.Videos) != 4 {
		t.Errorf("videos len = %d, want 4", len(lib.Videos))
	}
}

func TestRun_CheckpointsAfterEachVideo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	lister := &fakeLister{videos: candidates("a", "b", "c")}

	engine := New(lister, &fakeFetcher{}, &fakeTranscriber{}, store, "alice")
	if _, err := engine.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// One checkpoint per processed video plus the final save
	if store.saves != 4 {
		t.Errorf("saves = %d, want 4", store.saves)
	}
}

func TestRun_ReportHasRunID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")

	engine := New(&fakeLister{}, &fakeFetcher{}, &fakeTranscriber{}, store, "alice")
	report, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.RunID == "" {
		t.Error("report.RunID is empty")
	}
	if report.Creator != "alice" {
		t.Errorf("report.Creator = %q, want alice", report.Creator)
	}
	if report.Summary() == "" {
		t.Error("report.Summary() is empty")
	}
}
