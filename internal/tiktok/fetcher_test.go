package tiktok

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestYtdlpFetcher_ReusesExistingAudio(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "730.mp3")
	if err := os.WriteFile(existing, []byte("audio"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// A bogus yt-dlp path proves no subprocess runs for cached audio
	fetcher := NewYtdlpFetcher(dir)
	fetcher.Path = "/nonexistent/yt-dlp"

	got, err := fetcher.Fetch(context.Background(), "https://x/730", "730")
	if err != nil {
		t.Fatalf("Fetch() error = %v, want cached path", err)
	}
	if got != existing {
		t.Errorf("Fetch() = %q, want %q", got, existing)
	}
}

func TestYtdlpFetcher_FailureWrapsErrFetchFailed(t *testing.T) {
	fetcher := NewYtdlpFetcher(t.TempDir())
	fetcher.Path = "/nonexistent/yt-dlp"

	_, err := fetcher.Fetch(context.Background(), "https://x/731", "731")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}

func TestYtdlpFetcher_MockDownload(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script mock not available on windows")
	}

	dir := t.TempDir()
	mockPath := filepath.Join(dir, "yt-dlp")

	// Mock writes the output file named by -o
	script := `#!/bin/sh
out=""
while [ $# -gt 1 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
echo "fake mp3" > "$out"
`
	if err := os.WriteFile(mockPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to create mock yt-dlp: %v", err)
	}

	dataDir := filepath.Join(dir, "data")
	fetcher := NewYtdlpFetcher(dataDir)
	fetcher.Path = mockPath
	fetcher.Timeout = 30 * time.Second

	got, err := fetcher.Fetch(context.Background(), "https://x/732", "732")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := filepath.Join(dataDir, "732.mp3")
	if got != want {
		t.Errorf("Fetch() = %q, want %q", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("audio file missing: %v", err)
	}
}

func TestYtdlpFetcher_NoOutputIsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script mock not available on windows")
	}

	dir := t.TempDir()
	mockPath := filepath.Join(dir, "yt-dlp")

	// Exits zero without producing any file
	if err := os.WriteFile(mockPath, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("failed to create mock yt-dlp: %v", err)
	}

	fetcher := NewYtdlpFetcher(filepath.Join(dir, "data"))
	fetcher.Path = mockPath

	_, err := fetcher.Fetch(context.Background(), "https://x/733", "733")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}
