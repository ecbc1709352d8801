// Package retryqueue reschedules failed chain writes with exponential
// backoff. Jobs live in memory only; a process restart drops them, which
// is acceptable because every operation it retries is re-derivable from
// database state.
package retryqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nepalipay/chain-middleware/internal/metrics"
	"github.com/nepalipay/chain-middleware/pkg/config"
)

// JobType identifies which chain operation a job retries.
type JobType string

const (
	JobRegisterUser JobType = "register_user"
	JobTransfer     JobType = "transfer"
	JobMint         JobType = "mint"
	JobBurn         JobType = "burn"
)

// RegisterUserPayload carries a register_user job.
type RegisterUserPayload struct {
	UserID        int64  `json:"userId"`
	WalletAddress string `json:"walletAddress"`
}

// TransferPayload carries a transfer job.
type TransferPayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// MintPayload carries a mint job.
type MintPayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BurnPayload carries a burn job.
type BurnPayload struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

// Executor performs one attempt of a job. A nil return completes the job;
// an error reschedules it until attempts are exhausted.
type Executor func(ctx context.Context, payload any) error

// Job is a queued retry operation.
type Job struct {
	ID          string    `json:"id"`
	Type        JobType   `json:"type"`
	Payload     any       `json:"payload"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	NextRetry   time.Time `json:"nextRetry"`
	CreatedAt   time.Time `json:"createdAt"`
	LastError   string    `json:"lastError,omitempty"`
}

// Stats is a snapshot of queue contents.
type Stats struct {
	TotalJobs   int            `json:"totalJobs"`
	ReadyJobs   int            `json:"readyJobs"`
	PendingJobs int            `json:"pendingJobs"`
	JobsByType  map[string]int `json:"jobsByType"`
}

// Queue retries failed chain operations sequentially on a fixed tick.
type Queue struct {
	cfg    *config.RetryQueueConfig
	logger *zap.Logger
	nowFn  func() time.Time

	mu        sync.Mutex
	jobs      map[string]*Job
	executors map[JobType]Executor

	runMu   sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates a retry queue. Start must be called before jobs are
// processed; AddJob works either way.
func New(cfg *config.RetryQueueConfig, logger *zap.Logger) *Queue {
	return &Queue{
		cfg:       cfg,
		logger:    logger,
		nowFn:     time.Now,
		jobs:      make(map[string]*Job),
		executors: make(map[JobType]Executor),
	}
}

// RegisterExecutor binds the executor for a job type, replacing any
// previous one. Not safe to call concurrently with Start.
func (q *Queue) RegisterExecutor(jobType JobType, exec Executor) {
	q.executors[jobType] = exec
}

// AddJob enqueues a job. The first attempt runs on the next tick at or
// after one second from now.
func (q *Queue) AddJob(jobType JobType, payload any) string {
	now := q.nowFn()
	job := &Job{
		ID:          fmt.Sprintf("%s_%s", jobType, uuid.NewString()),
		Type:        jobType,
		Payload:     payload,
		MaxAttempts: q.maxAttempts(),
		NextRetry:   now.Add(time.Second),
		CreatedAt:   now,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	depth := len(q.jobs)
	q.mu.Unlock()

	metrics.RetryQueueDepth.Set(float64(depth))
	q.logger.Info("Added job to retry queue",
		zap.String("job_id", job.ID),
		zap.String("job_type", string(jobType)))
	return job.ID
}

// RemoveJob deletes a job by ID, reporting whether it existed.
func (q *Queue) RemoveJob(jobID string) bool {
	q.mu.Lock()
	_, ok := q.jobs[jobID]
	delete(q.jobs, jobID)
	depth := len(q.jobs)
	q.mu.Unlock()

	if ok {
		metrics.RetryQueueDepth.Set(float64(depth))
		q.logger.Info("Removed job from retry queue", zap.String("job_id", jobID))
	}
	return ok
}

// Stats returns a snapshot of queue contents.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.nowFn()
	stats := Stats{
		TotalJobs:  len(q.jobs),
		JobsByType: make(map[string]int),
	}
	for _, job := range q.jobs {
		if job.NextRetry.After(now) {
			stats.PendingJobs++
		} else {
			stats.ReadyJobs++
		}
		stats.JobsByType[string(job.Type)]++
	}
	return stats
}

// Jobs returns copies of all queued jobs.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].NextRetry.Before(jobs[j].NextRetry) })
	return jobs
}

// Start launches the processing loop. Calling Start on a running queue is
// a no-op.
func (q *Queue) Start() {
	q.runMu.Lock()
	defer q.runMu.Unlock()

	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.wg.Add(1)
	go q.run()

	q.logger.Info("Retry queue processing started",
		zap.Duration("interval", q.interval()),
		zap.Int("max_attempts", q.maxAttempts()))
}

// Stop halts processing and waits for any in-flight tick to finish.
// Queued jobs stay in place.
func (q *Queue) Stop() {
	q.runMu.Lock()
	defer q.runMu.Unlock()

	if !q.running {
		return
	}
	close(q.stopCh)
	q.wg.Wait()
	q.running = false

	q.logger.Info("Retry queue processing stopped")
}

func (q *Queue) run() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.interval())
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.processReady(context.Background())
		}
	}
}

// processReady runs every due job once, oldest deadline first. Jobs are
// executed sequentially so retried writes cannot race each other on the
// admin wallet nonce.
func (q *Queue) processReady(ctx context.Context) {
	now := q.nowFn()

	q.mu.Lock()
	ready := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		if !job.NextRetry.After(now) {
			ready = append(ready, job)
		}
	}
	q.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool { return ready[i].NextRetry.Before(ready[j].NextRetry) })

	for _, job := range ready {
		q.processJob(ctx, job)
	}
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	q.logger.Info("Processing retry job",
		zap.String("job_id", job.ID),
		zap.String("job_type", string(job.Type)),
		zap.Int("attempt", job.Attempts+1),
		zap.Int("max_attempts", job.MaxAttempts))

	q.mu.Lock()
	job.Attempts++
	attempts := job.Attempts
	q.mu.Unlock()

	exec, ok := q.executors[job.Type]
	var err error
	if !ok {
		err = fmt.Errorf("no executor registered for job type %s", job.Type)
	} else {
		err = exec(ctx, job.Payload)
	}

	if err == nil {
		metrics.RetryJobs.WithLabelValues(string(job.Type), "success").Inc()
		q.logger.Info("Retry job completed", zap.String("job_id", job.ID))
		q.RemoveJob(job.ID)
		return
	}

	if attempts >= job.MaxAttempts {
		metrics.RetryJobs.WithLabelValues(string(job.Type), "permanent_failure").Inc()
		q.logger.Error("Retry job permanently failed",
			zap.String("job_id", job.ID),
			zap.String("job_type", string(job.Type)),
			zap.Any("payload", job.Payload),
			zap.Int("attempts", attempts),
			zap.Time("created_at", job.CreatedAt),
			zap.String("last_error", err.Error()))
		q.RemoveJob(job.ID)
		return
	}

	// Exponential backoff: 2^attempts seconds.
	delay := time.Duration(1<<uint(attempts)) * time.Second

	q.mu.Lock()
	job.LastError = err.Error()
	job.NextRetry = q.nowFn().Add(delay)
	q.mu.Unlock()

	metrics.RetryJobs.WithLabelValues(string(job.Type), "retry").Inc()
	q.logger.Warn("Retry job rescheduled",
		zap.String("job_id", job.ID),
		zap.Duration("next_attempt_in", delay),
		zap.String("last_error", err.Error()))
}

func (q *Queue) interval() time.Duration {
	if q.cfg != nil && q.cfg.Interval > 0 {
		return q.cfg.Interval
	}
	return 5 * time.Second
}

func (q *Queue) maxAttempts() int {
	if q.cfg != nil && q.cfg.MaxAttempts > 0 {
		return q.cfg.MaxAttempts
	}
	return 3
}
