// Package penniestracker tracks a single TikTok creator's video feed,
// downloads new videos' audio, transcribes it, and keeps the results in a
// flat JSON library.
//
// The binary under cmd/pennies-tracker runs one sync per invocation: load
// the library, list the creator's recent videos, process the unseen ones in
// listing order, and save. Each new video is prepended to the library, so
// the persisted file stays newest-first. Per-video failures never abort a
// run; a video whose audio or transcription fails is still recorded, with a
// null transcript.
//
// Configuration
//
// Settings load from three sources, highest priority first:
//
//   1. Environment variables (plus a .env file if present)
//   2. pennies.yaml (or the file named by PENNIES_CONFIG)
//   3. Default values
//
// Environment variables:
//
//   - PENNIES_CREATOR: TikTok handle to track (without @)
//   - PENNIES_DATA_DIR: Directory for downloaded audio
//   - PENNIES_OUTPUT: Path of the JSON library file
//   - PENNIES_YTDLP_PATH: Path to the yt-dlp executable
//   - PENNIES_LIST_TIMEOUT / PENNIES_FETCH_TIMEOUT / PENNIES_TRANSCRIBE_TIMEOUT
//   - PENNIES_MAX_PER_RUN: Cap on videos processed per run (0 = unlimited)
//   - PENNIES_SCHEDULE: Cron expression for recurring runs
//   - OPENAI_API_KEY: Whisper credential; absent disables transcription
//
// Error Handling
//
// All operations return errors that work with errors.Is and errors.As:
//
//	if errors.Is(err, penniestracker.ErrStorageCorrupt) {
//		// the library file exists but cannot be parsed; nothing was written
//	}
//
//	var listerErr *penniestracker.ListerError
//	if errors.As(err, &listerErr) {
//		fmt.Printf("listing @%s failed: %v\n", listerErr.Creator, listerErr.Err)
//	}
//
// Sub-packages:
//
//   - internal/sync: the sync engine
//   - internal/storage: the JSON library store
//   - internal/tiktok: yt-dlp listing and audio download adapters
//   - internal/transcribe: the Whisper transcription adapter
//   - internal/config: configuration management
//   - internal/retry: exponential backoff retry logic
//
// pennies-tracker requires yt-dlp to be installed and available in PATH or
// specified via PENNIES_YTDLP_PATH.
//
// Install yt-dlp: https://github.com/yt-dlp/yt-dlp
package penniestracker
