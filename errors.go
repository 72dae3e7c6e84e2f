package penniestracker

import (
	"errors"

	"github.com/HectorTries/pennies-tracker/internal/retry"
	"github.com/HectorTries/pennies-tracker/internal/storage"
	"github.com/HectorTries/pennies-tracker/internal/tiktok"
	"github.com/HectorTries/pennies-tracker/internal/transcribe"
)

// Type aliases for convenient error handling.
type (
	// ListerError wraps errors during video listing.
	ListerError = tiktok.ListerError
	// TranscribeError wraps errors during transcription.
	TranscribeError = transcribe.TranscribeError
	// StorageError wraps errors during library load and save.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrCreatorNotFound indicates the TikTok creator does not exist.
	ErrCreatorNotFound = tiktok.ErrCreatorNotFound
	// ErrRateLimited indicates TikTok rate-limited the listing.
	ErrRateLimited = tiktok.ErrRateLimited
	// ErrNetworkTimeout indicates a network timeout occurred.
	ErrNetworkTimeout = tiktok.ErrNetworkTimeout
	// ErrYtdlpNotInstalled indicates the yt-dlp binary was not found.
	ErrYtdlpNotInstalled = tiktok.ErrYtdlpNotInstalled
	// ErrFetchFailed indicates an audio download failed.
	ErrFetchFailed = tiktok.ErrFetchFailed

	// ErrNotConfigured indicates transcription is disabled (no credential).
	ErrNotConfigured = transcribe.ErrNotConfigured

	// ErrStorageCorrupt indicates the library file cannot be parsed.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring the library file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors like ErrCreatorNotFound.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrCreatorNotFound) ||
		errors.Is(err, ErrYtdlpNotInstalled) ||
		errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, ErrStorageCorrupt) {
		return false
	}
	return retry.IsRetryable(err)
}
