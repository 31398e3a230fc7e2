package persistence

import "time"

// ChunkCheckpoint is one finished chunk of a batch run, keyed by the
// half-open line range it covers.
type ChunkCheckpoint struct {
	JobID           string
	ChunkStart      int
	ChunkEnd        int
	TranslatedLines []string
	UpdatedAt       time.Time
}
