package tiktok

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const defaultFetchTimeout = 5 * time.Minute

// YtdlpFetcher implements AudioFetcher by extracting MP3 audio with yt-dlp.
// The target filename is derived from the video ID, so a rerun after a crash
// reuses an already-downloaded artifact instead of re-fetching.
type YtdlpFetcher struct {
	// Path is the path to the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// DataDir is where audio files are written.
	DataDir string

	// Timeout is the maximum wall-clock time per download.
	Timeout time.Duration
}

// NewYtdlpFetcher creates an audio fetcher writing into dataDir.
func NewYtdlpFetcher(dataDir string) *YtdlpFetcher {
	return &YtdlpFetcher{
		Path:    defaultYtdlpPath,
		DataDir: dataDir,
		Timeout: defaultFetchTimeout,
	}
}

// Fetch downloads the audio for url to <DataDir>/<id>.mp3 and returns the
// local path. Timeout counts as an ordinary fetch failure, never a
// process-level fault.
func (f *YtdlpFetcher) Fetch(ctx context.Context, url, id string) (string, error) {
	audioPath := filepath.Join(f.DataDir, id+".mp3")

	if _, err := os.Stat(audioPath); err == nil {
		return audioPath, nil
	}

	if err := os.MkdirAll(f.DataDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create data dir: %v", ErrFetchFailed, err)
	}

	timeout := f.Timeout
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, f.path(),
		"-x",
		"--audio-format", "mp3",
		"--no-warnings",
		"-o", audioPath,
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %s: timed out", ErrFetchFailed, id)
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrFetchFailed, id, err, stderr.String())
	}

	// yt-dlp occasionally exits zero without producing output
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("%w: %s: no audio produced", ErrFetchFailed, id)
	}

	return audioPath, nil
}

func (f *YtdlpFetcher) path() string {
	if f.Path != "" {
		return f.Path
	}
	return defaultYtdlpPath
}
