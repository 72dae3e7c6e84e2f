package storage

import "time"

// VideoRecord is one processed remote video. Records are created fully
// populated and never mutated afterward; the library is an append-only log.
type VideoRecord struct {
	// ID is the TikTok video ID, the unique key across the library.
	ID string `json:"id"`

	// Title is the video title. "Unknown" when the listing had none.
	Title string `json:"title"`

	// URL is the canonical video URL.
	URL string `json:"url"`

	// ScrapedAt is when this record was processed.
	ScrapedAt time.Time `json:"scraped_at"`

	// Transcript is the transcribed audio, or nil when transcription was
	// skipped, unconfigured, or failed. Serializes as JSON null.
	Transcript *string `json:"transcript"`
}

// Library is the whole persisted document for one creator.
type Library struct {
	// Creator is the tracked handle, fixed at configuration time.
	Creator string `json:"creator"`

	// Videos is ordered newest-first: each new record is prepended.
	Videos []VideoRecord `json:"videos"`

	// LastUpdated is the time of the most recent successful save,
	// nil before the first save.
	LastUpdated *time.Time `json:"last_updated"`
}

// NewLibrary returns an empty library for the given creator.
func NewLibrary(creator string) *Library {
	return &Library{
		Creator: creator,
		Videos:  []VideoRecord{},
	}
}

// KnownIDs returns the set of video IDs already in the library.
func (l *Library) KnownIDs() map[string]bool {
	ids := make(map[string]bool, len(l.Videos))
	for _, v := range l.Videos {
		ids[v.ID] = true
	}
	return ids
}

// Prepend inserts a record at the front of the video list, keeping the
// newest-first order the persisted format promises.
func (l *Library) Prepend(rec VideoRecord) {
	l.Videos = append([]VideoRecord{rec}, l.Videos...)
}
