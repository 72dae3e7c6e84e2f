package tiktok

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/HectorTries/pennies-tracker/internal/retry"
)

const (
	defaultYtdlpPath   = "yt-dlp"
	defaultListTimeout = 60 * time.Second

	// TikTok blocks obvious bots; the desktop user agent keeps the flat
	// playlist extractor working more often than not.
	desktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Fallback extractor args routing listing through the mobile API,
	// tried when the web extractor is blocked.
	mobileAPIArgs = "tiktok:api_url=api16-normal-c-useast2a.tiktokv.com"
)

// YtdlpLister implements VideoLister using yt-dlp as a subprocess.
type YtdlpLister struct {
	// Path is the path to the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// Timeout is the maximum wall-clock time per listing call.
	Timeout time.Duration

	// Limiter paces listing calls against TikTok. Nil means no pacing.
	Limiter *rate.Limiter

	// RetryConfig holds retry behavior configuration.
	RetryConfig *retry.Config
}

// NewYtdlpLister creates a yt-dlp based video lister with default pacing.
func NewYtdlpLister() *YtdlpLister {
	cfg := retry.DefaultConfig()
	return &YtdlpLister{
		Path:        defaultYtdlpPath,
		Timeout:     defaultListTimeout,
		Limiter:     rate.NewLimiter(rate.Limit(0.5), 1),
		RetryConfig: &cfg,
	}
}

// ListVideos fetches the creator's recent videos. The primary web extractor
// is tried first; if it fails or returns nothing, one pass through the
// mobile API extractor follows before giving up.
func (y *YtdlpLister) ListVideos(ctx context.Context, creator string) ([]VideoInfo, error) {
	if err := y.checkInstalled(ctx); err != nil {
		return nil, err
	}

	cfg := y.RetryConfig
	if cfg == nil {
		defaultCfg := retry.DefaultConfig()
		cfg = &defaultCfg
	}

	var videos []VideoInfo
	err := retry.Do(ctx, *cfg, listErrorClassifier, func(ctx context.Context) error {
		parsed, err := y.listOnce(ctx, creator, nil)
		if err == nil && len(parsed) > 0 {
			videos = parsed
			return nil
		}

		// Primary extractor blocked or empty: try the mobile API route.
		parsed, altErr := y.listOnce(ctx, creator, []string{"--extractor-args", mobileAPIArgs})
		if altErr == nil {
			videos = parsed
			return nil
		}
		if err != nil {
			return err
		}
		return altErr
	})
	if err != nil {
		return nil, err
	}

	return videos, nil
}

// listOnce runs a single yt-dlp flat-playlist listing.
func (y *YtdlpLister) listOnce(ctx context.Context, creator string, extraArgs []string) ([]VideoInfo, error) {
	if y.Limiter != nil {
		if err := y.Limiter.Wait(ctx); err != nil {
			return nil, &ListerError{Creator: creator, Err: err}
		}
	}

	args := []string{
		"--flat-playlist",
		"--print", "%(id)s|%(title)s",
		"--no-warnings",
		"--socket-timeout", "30",
		"--user-agent", desktopUserAgent,
		"--extractor-args", "tiktok:watermark=0",
	}
	args = append(args, extraArgs...)
	args = append(args, CreatorURL(creator))

	timeout := y.Timeout
	if timeout == 0 {
		timeout = defaultListTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, y.path(), args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return nil, &ListerError{Creator: creator, Err: ErrNetworkTimeout}
		}
		if cmdCtx.Err() == context.Canceled {
			return nil, &ListerError{Creator: creator, Err: context.Canceled}
		}

		errMsg := stderr.String()
		if strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "does not exist") {
			return nil, &ListerError{Creator: creator, Err: ErrCreatorNotFound}
		}
		if strings.Contains(errMsg, "rate") || strings.Contains(errMsg, "429") {
			return nil, &ListerError{Creator: creator, Err: ErrRateLimited}
		}

		return nil, &ListerError{Creator: creator,
			Err: fmt.Errorf("yt-dlp failed: %w: %s", err, errMsg)}
	}

	return parseListing(stdout.String(), creator), nil
}

// checkInstalled verifies that yt-dlp is available.
func (y *YtdlpLister) checkInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, y.path(), "--version")
	if err := cmd.Run(); err != nil {
		return &ListerError{Creator: "", Err: ErrYtdlpNotInstalled}
	}
	return nil
}

func (y *YtdlpLister) path() string {
	if y.Path != "" {
		return y.Path
	}
	return defaultYtdlpPath
}

// parseListing parses yt-dlp's "%(id)s|%(title)s" print output.
// Lines without a separator are skipped; a missing title becomes "Unknown".
func parseListing(output, creator string) []VideoInfo {
	var videos []VideoInfo
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" || !strings.Contains(line, "|") {
			continue
		}

		parts := strings.SplitN(line, "|", 2)
		id := strings.TrimSpace(parts[0])
		if id == "" {
			continue
		}

		title := "Unknown"
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			title = strings.TrimSpace(parts[1])
		}

		videos = append(videos, VideoInfo{
			ID:    id,
			Title: title,
			URL:   VideoURL(creator, id),
		})
	}
	return videos
}

// listErrorClassifier determines if a listing error is retryable.
func listErrorClassifier(err error) bool {
	if err == nil {
		return false
	}

	var listerErr *ListerError
	if errors.As(err, &listerErr) {
		switch {
		case errors.Is(listerErr.Err, ErrCreatorNotFound),
			errors.Is(listerErr.Err, ErrYtdlpNotInstalled),
			errors.Is(listerErr.Err, context.Canceled):
			return false
		default:
			// Retryable: rate limit, timeout, network errors
			return true
		}
	}

	return true
}
