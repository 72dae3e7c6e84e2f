// Package tiktok provides TikTok video listing and audio retrieval
// through yt-dlp subprocesses.
package tiktok

import (
	"context"
	"errors"
)

// Sentinel errors for listing and fetch operations.
var (
	ErrCreatorNotFound   = errors.New("tiktok: creator not found")
	ErrRateLimited       = errors.New("tiktok: rate limited")
	ErrNetworkTimeout    = errors.New("tiktok: network timeout")
	ErrYtdlpNotInstalled = errors.New("tiktok: yt-dlp not installed")
	ErrFetchFailed       = errors.New("tiktok: audio fetch failed")
)

// VideoLister fetches the recent video listing for a creator.
// TikTok gives no ordering guarantee beyond reverse-chronological-ish,
// and is known to block or rate-limit listing requests.
type VideoLister interface {
	ListVideos(ctx context.Context, creator string) ([]VideoInfo, error)
}

// AudioFetcher retrieves a local audio artifact for a video.
type AudioFetcher interface {
	// Fetch downloads the audio for the given video URL to a path derived
	// from id, returning the local path. An already-downloaded artifact is
	// reused without re-fetching.
	Fetch(ctx context.Context, url, id string) (string, error)
}

// VideoInfo describes one video from a creator listing.
type VideoInfo struct {
	// ID is the TikTok video ID.
	ID string `json:"id"`

	// Title is the video title, "Unknown" when the listing had none.
	Title string `json:"title"`

	// URL is the canonical video URL.
	URL string `json:"url"`
}

// CreatorURL returns the profile URL for a creator handle.
func CreatorURL(creator string) string {
	return "https://www.tiktok.com/@" + creator
}

// VideoURL returns the canonical URL for a creator's video.
func VideoURL(creator, id string) string {
	return CreatorURL(creator) + "/video/" + id
}

// ListerError wraps errors with context about the listing operation.
type ListerError struct {
	Creator string // Creator handle being listed
	Err     error  // Underlying error
}

func (e *ListerError) Error() string {
	return "tiktok: listing @" + e.Creator + ": " + e.Err.Error()
}

func (e *ListerError) Unwrap() error { return e.Err }
