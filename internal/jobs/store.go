package jobs

import "context"

// Store persists job states so a restarted queue can pick up where it
// left off.
type Store interface {
	LoadJobs(ctx context.Context) ([]*BatchJob, error)
	UpsertJob(ctx context.Context, job *BatchJob) error
	DeleteJob(ctx context.Context, jobID string) error
	// DeleteJobData removes auxiliary run data (chunk checkpoints) of a job
	DeleteJobData(ctx context.Context, jobID string) error
}
