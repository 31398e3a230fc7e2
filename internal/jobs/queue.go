package jobs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
)

// Runner executes one batch job
type Runner func(ctx context.Context, job *BatchJob) error

// Queue is an in-memory job queue with optional persistence. Jobs
// submitted while a live job carries the same fingerprint are deduped
// onto the existing one. Terminal jobs are retained for inspection up
// to a cap and pruned oldest first.
type Queue struct {
	workers  int
	retained int
	store    Store

	mu       sync.RWMutex
	jobs     map[string]*BatchJob
	byPrint  map[string]string
	lastID   uint64
	started  bool
	ready    chan string
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewQueue builds a queue with the given worker count, restoring any
// persisted jobs from the store. Jobs caught mid-run by a previous
// shutdown are requeued.
func NewQueue(workers int, store Store) *Queue {
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		workers:  workers,
		retained: 1000,
		store:    store,
		jobs:     make(map[string]*BatchJob),
		byPrint:  make(map[string]string),
		ready:    make(chan string, 1024),
		stopCh:   make(chan struct{}),
	}
	q.restore(context.Background())
	return q
}

// Submit enqueues a job. Returns the job and true when a new job was
// created, or the live job carrying the same fingerprint and false.
func (q *Queue) Submit(sub Submission) (*BatchJob, bool) {
	now := time.Now()

	q.mu.Lock()
	if id, ok := q.byPrint[sub.Fingerprint]; ok {
		if live, exists := q.jobs[id]; exists {
			snapshot := snapshotJob(live)
			q.mu.Unlock()
			return snapshot, false
		}
		delete(q.byPrint, sub.Fingerprint)
	}

	q.lastID++
	job := &BatchJob{
		ID:          fmt.Sprintf("batch-%d", q.lastID),
		Origin:      sub.Origin,
		Fingerprint: sub.Fingerprint,
		Spec:        sub.Spec,
		State:       StateQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	q.jobs[job.ID] = job
	if sub.Fingerprint != "" {
		q.byPrint[sub.Fingerprint] = job.ID
	}
	started := q.started
	snapshot := snapshotJob(job)
	q.mu.Unlock()

	q.persist(snapshot)
	if started {
		q.dispatch(job.ID)
	}
	return snapshot, true
}

// Get returns a snapshot of one job
func (q *Queue) Get(id string) (*BatchJob, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return snapshotJob(job), true
}

// List returns snapshots of all retained jobs
func (q *Queue) List() []*BatchJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*BatchJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, snapshotJob(job))
	}
	return ret
}

// Start launches the workers and feeds them every queued job. Calling
// Start twice is a no-op.
func (q *Queue) Start(run Runner) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	queued := make([]string, 0)
	for id, job := range q.jobs {
		if job.State == StateQueued {
			queued = append(queued, id)
		}
	}
	q.mu.Unlock()

	for _, id := range queued {
		q.dispatch(id)
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(run)
	}
}

// Stop shuts the workers down and waits for in-flight jobs to finish
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
	})
}

func (q *Queue) work(run Runner) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.ready:
			job, ok := q.claim(id)
			if !ok {
				continue
			}
			q.finish(id, run(context.Background(), job))
		}
	}
}

func (q *Queue) dispatch(id string) {
	select {
	case q.ready <- id:
	default:
		// Buffer full: hand off in the background, but never outlive Stop
		go func() {
			select {
			case q.ready <- id:
			case <-q.stopCh:
			}
		}()
	}
}

// claim flips a queued job to running and hands a snapshot to the worker
func (q *Queue) claim(id string) (*BatchJob, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.State != StateQueued {
		q.mu.Unlock()
		return nil, false
	}
	job.State = StateRunning
	job.UpdatedAt = time.Now()
	snapshot := snapshotJob(job)
	q.mu.Unlock()

	q.persist(snapshot)
	return snapshot, true
}

// finish moves a running job to its terminal state, frees its
// fingerprint and prunes old terminal jobs past the retention cap.
func (q *Queue) finish(id string, runErr error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	if runErr != nil {
		job.State = StateFailed
		job.FailReason = runErr.Error()
	} else {
		job.State = StateDone
		job.FailReason = ""
	}
	job.UpdatedAt = time.Now()
	q.freePrintLocked(job)
	pruned := q.pruneLocked()
	snapshot := snapshotJob(job)
	q.mu.Unlock()

	q.persist(snapshot)
	q.forget(pruned)
}

func (q *Queue) freePrintLocked(job *BatchJob) {
	if job == nil || job.Fingerprint == "" {
		return
	}
	if id, ok := q.byPrint[job.Fingerprint]; ok && id == job.ID {
		delete(q.byPrint, job.Fingerprint)
	}
}

// pruneLocked drops the oldest terminal jobs until the retention cap
// holds. Queued and running jobs are never pruned.
func (q *Queue) pruneLocked() []string {
	if q.retained <= 0 || len(q.jobs) <= q.retained {
		return nil
	}

	type aged struct {
		id        string
		updatedAt time.Time
	}
	terminal := make([]aged, 0, len(q.jobs))
	for id, job := range q.jobs {
		if job == nil || !job.State.terminal() {
			continue
		}
		terminal = append(terminal, aged{id: id, updatedAt: job.UpdatedAt})
	}
	if len(terminal) == 0 {
		return nil
	}

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].updatedAt.Before(terminal[j].updatedAt)
	})

	excess := len(q.jobs) - q.retained
	if excess > len(terminal) {
		excess = len(terminal)
	}

	pruned := make([]string, 0, excess)
	for _, candidate := range terminal[:excess] {
		q.freePrintLocked(q.jobs[candidate.id])
		delete(q.jobs, candidate.id)
		pruned = append(pruned, candidate.id)
	}
	return pruned
}

// forget removes pruned jobs and their run data from the store
func (q *Queue) forget(ids []string) {
	if q.store == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if err := q.store.DeleteJobData(context.Background(), id); err != nil {
			log.Error("Failed to delete run data of pruned job %s: %v", id, err)
		}
		if err := q.store.DeleteJob(context.Background(), id); err != nil {
			log.Error("Failed to delete pruned job %s: %v", id, err)
		}
	}
}

// restore loads persisted jobs. A job persisted as running belongs to a
// crashed or stopped process and goes back to queued.
func (q *Queue) restore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadJobs(ctx)
	if err != nil {
		log.Error("Failed to restore jobs from store: %v", err)
		return
	}

	now := time.Now()
	requeued := make([]*BatchJob, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		job := snapshotJob(raw)
		if job.State == StateRunning {
			job.State = StateQueued
			job.UpdatedAt = now
			requeued = append(requeued, snapshotJob(job))
		}
		q.jobs[job.ID] = job
		if !job.State.terminal() && job.Fingerprint != "" {
			q.byPrint[job.Fingerprint] = job.ID
		}
		q.bumpIDLocked(job.ID)
	}
	q.mu.Unlock()

	for _, job := range requeued {
		q.persist(job)
	}
}

func (q *Queue) bumpIDLocked(jobID string) {
	raw, ok := strings.CutPrefix(jobID, "batch-")
	if !ok {
		return
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return
	}
	if n > q.lastID {
		q.lastID = n
	}
}

func (q *Queue) persist(job *BatchJob) {
	if q.store == nil || job == nil {
		return
	}
	if err := q.store.UpsertJob(context.Background(), job); err != nil {
		log.Error("Failed to persist job %s: %v", job.ID, err)
	}
}

func snapshotJob(job *BatchJob) *BatchJob {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
