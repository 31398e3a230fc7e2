package jobs

import "time"

// State is the lifecycle stage of a batch job
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// terminal reports whether a job in this state will never run again
func (s State) terminal() bool {
	return s == StateDone || s == StateFailed
}

// BatchSpec describes one subtitle batch to translate
type BatchSpec struct {
	MediaFile      string `json:"media_file"`
	SubtitleFile   string `json:"subtitle_file"`
	NFOFile        string `json:"nfo_file"`
	TargetLanguage string `json:"target_language"`
	ChunkSize      int    `json:"chunk_size"`
}

// BatchJob is one unit of queued work. Fingerprint deduplicates
// submissions of the same subtitle while a previous job for it is still
// live.
type BatchJob struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Fingerprint string    `json:"fingerprint"`
	Spec        BatchSpec `json:"spec"`
	State       State     `json:"state"`
	FailReason  string    `json:"fail_reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is a request to enqueue a batch job
type Submission struct {
	Origin      string
	Fingerprint string
	Spec        BatchSpec
}
