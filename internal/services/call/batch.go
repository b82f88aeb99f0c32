package call

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/core/event"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/internal/metrics"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BatchState is the lifecycle state of a batch job
type BatchState string

const (
	BatchStateRunning   BatchState = "running"
	BatchStateCompleted BatchState = "completed"
	BatchStateCancelled BatchState = "cancelled"
)

const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = 5 * time.Second
	MaxBatchSize      = 50
)

// BatchOptions configure one batch job
type BatchOptions struct {
	AssistantID string        `json:"assistant_id"`
	CampaignID  string        `json:"campaign_id,omitempty"`
	Prompt      string        `json:"prompt,omitempty"`
	BatchSize   int           `json:"batch_size"`
	Delay       time.Duration `json:"delay"`
}

func (o *BatchOptions) normalize() error {
	if o.AssistantID == "" {
		return fmt.Errorf("%w: assistant_id is required", domain.ErrInvalidInput)
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchSize < 1 || o.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch_size must be within [1, %d]", domain.ErrInvalidInput, MaxBatchSize)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: delay cannot be negative", domain.ErrInvalidInput)
	}
	return nil
}

// BatchJob reports the progress of a batch dial
type BatchJob struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	AssistantID string     `json:"assistant_id"`
	CampaignID  string     `json:"campaign_id,omitempty"`
	State       BatchState `json:"state"`
	Total       int        `json:"total"`
	Dialed      int        `json:"dialed"`
	Failed      int        `json:"failed"`
	CallIDs     []string   `json:"call_ids"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Progress is the share of numbers attempted, 0-100
func (j BatchJob) Progress() float64 {
	if j.Total == 0 {
		return 100
	}
	return float64(j.Dialed+j.Failed) / float64(j.Total) * 100
}

type batchRun struct {
	job    BatchJob
	cancel context.CancelFunc
	done   chan struct{}
}

// BatchDialer dials imported contact lists through the calling API, paced by a
// token bucket of BatchSize calls per Delay.
type BatchDialer struct {
	calls     CallingAPI
	publisher event.Publisher
	jobs      map[string]*batchRun
	mutex     sync.RWMutex
}

// NewBatchDialer creates a dialer placing calls through calls
func NewBatchDialer(calls CallingAPI, publisher event.Publisher) *BatchDialer {
	return &BatchDialer{
		calls:     calls,
		publisher: publisher,
		jobs:      make(map[string]*batchRun),
	}
}

func limiterFor(opts BatchOptions) *rate.Limiter {
	if opts.Delay == 0 {
		return rate.NewLimiter(rate.Inf, opts.BatchSize)
	}
	return rate.NewLimiter(rate.Every(opts.Delay/time.Duration(opts.BatchSize)), opts.BatchSize)
}

// Start launches a batch job in the background and returns its initial state.
// The job outlives ctx's cancellation but keeps its values.
func (d *BatchDialer) Start(ctx context.Context, store *session.Store, numbers []string, opts BatchOptions) (*BatchJob, error) {
	if !store.Credentials().HasAPIKey() {
		return nil, domain.ErrMissingAPIKey
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: no phone numbers to dial", domain.ErrInvalidInput)
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &batchRun{
		job: BatchJob{
			ID:          uuid.New().String(),
			SessionID:   store.ID(),
			AssistantID: opts.AssistantID,
			CampaignID:  opts.CampaignID,
			State:       BatchStateRunning,
			Total:       len(numbers),
			CallIDs:     make([]string, 0, len(numbers)),
			CreatedAt:   time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	d.mutex.Lock()
	d.jobs[run.job.ID] = run
	d.mutex.Unlock()

	logger.Info(ctx, "Batch job started",
		zap.String("batch_id", run.job.ID),
		zap.Int("total", run.job.Total),
		zap.Int("batch_size", opts.BatchSize),
		zap.Duration("delay", opts.Delay))

	go d.run(runCtx, store, run, append([]string(nil), numbers...), opts)

	job := d.snapshot(run)
	return &job, nil
}

func (d *BatchDialer) run(ctx context.Context, store *session.Store, run *batchRun, numbers []string, opts BatchOptions) {
	defer close(run.done)
	defer run.cancel()
	done := metrics.BatchJobStarted()
	defer done()

	limiter := limiterFor(opts)
	cancelled := false
	for _, number := range numbers {
		if err := limiter.Wait(ctx); err != nil {
			cancelled = true
			break
		}

		res, err := d.calls.InitiateCall(ctx, store, opts.AssistantID, number, opts.Prompt)

		d.mutex.Lock()
		if err != nil {
			run.job.Failed++
			run.job.LastError = err.Error()
		} else {
			run.job.Dialed++
			run.job.CallIDs = append(run.job.CallIDs, res.CallID)
		}
		d.mutex.Unlock()

		if err != nil {
			metrics.RecordBatchDial("failed")
			logger.Warn(ctx, "Batch dial failed", zap.String("batch_id", run.job.ID), zap.Error(err))
		} else {
			metrics.RecordBatchDial("dialed")
		}
	}

	finished := time.Now()
	d.mutex.Lock()
	run.job.FinishedAt = &finished
	if cancelled {
		run.job.State = BatchStateCancelled
	} else {
		run.job.State = BatchStateCompleted
	}
	job := run.job
	d.mutex.Unlock()

	logger.Info(ctx, "Batch job finished",
		zap.String("batch_id", job.ID),
		zap.String("state", string(job.State)),
		zap.Int("dialed", job.Dialed),
		zap.Int("failed", job.Failed))

	if d.publisher != nil {
		ev := event.NewCallEvent(event.BatchCompleted, job.SessionID, nil).WithData(map[string]any{
			"batch_id":    job.ID,
			"campaign_id": job.CampaignID,
			"state":       string(job.State),
			"total":       job.Total,
			"dialed":      job.Dialed,
			"failed":      job.Failed,
		})
		if err := d.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
			logger.Warn(ctx, "Failed to publish batch event", zap.String("batch_id", job.ID), zap.Error(err))
		}
	}
}

func (d *BatchDialer) snapshot(run *batchRun) BatchJob {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	job := run.job
	job.CallIDs = append([]string(nil), run.job.CallIDs...)
	if run.job.FinishedAt != nil {
		t := *run.job.FinishedAt
		job.FinishedAt = &t
	}
	return job
}

func (d *BatchDialer) lookup(id string) (*batchRun, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	run, ok := d.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	return run, nil
}

// Get returns the current progress of a job
func (d *BatchDialer) Get(id string) (*BatchJob, error) {
	run, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	job := d.snapshot(run)
	return &job, nil
}

// List returns every job of a session, newest first
func (d *BatchDialer) List(sessionID string) []BatchJob {
	d.mutex.RLock()
	runs := make([]*batchRun, 0, len(d.jobs))
	for _, run := range d.jobs {
		if run.job.SessionID == sessionID {
			runs = append(runs, run)
		}
	}
	d.mutex.RUnlock()

	out := make([]BatchJob, 0, len(runs))
	for _, run := range runs {
		out = append(out, d.snapshot(run))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Cancel stops a running job and waits for it to settle
func (d *BatchDialer) Cancel(id string) (*BatchJob, error) {
	run, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	run.cancel()
	<-run.done
	job := d.snapshot(run)
	return &job, nil
}

// Wait blocks until the job finishes or ctx is done
func (d *BatchDialer) Wait(ctx context.Context, id string) (*BatchJob, error) {
	run, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-run.done:
		job := d.snapshot(run)
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// prune removes the finished jobs drop selects and returns how many went
func (d *BatchDialer) prune(drop func(BatchJob) bool) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	pruned := 0
	for id, run := range d.jobs {
		if run.job.FinishedAt == nil || !drop(run.job) {
			continue
		}
		delete(d.jobs, id)
		pruned++
	}
	return pruned
}

// Prune forgets jobs that finished more than ttl ago. Running jobs are kept.
func (d *BatchDialer) Prune(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	pruned := d.prune(func(j BatchJob) bool { return j.FinishedAt.Before(cutoff) })
	if pruned > 0 {
		logger.Base().Info("Pruned finished batch jobs", zap.Int("pruned_count", pruned), zap.Duration("ttl", ttl))
	}
	return pruned
}

// PruneSession forgets the finished jobs of a session, used when the session is evicted
func (d *BatchDialer) PruneSession(sessionID string) int {
	pruned := d.prune(func(j BatchJob) bool { return j.SessionID == sessionID })
	if pruned > 0 {
		logger.Base().Info("Pruned batch jobs of evicted session", zap.String("session_id", sessionID), zap.Int("pruned_count", pruned))
	}
	return pruned
}

// StartPruneRoutine periodically prunes finished jobs until ctx is done
func (d *BatchDialer) StartPruneRoutine(ctx context.Context, checkInterval, ttl time.Duration) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Prune(ttl)
		}
	}
}

// Shutdown cancels every running job
func (d *BatchDialer) Shutdown() {
	d.mutex.RLock()
	runs := make([]*batchRun, 0, len(d.jobs))
	for _, run := range d.jobs {
		runs = append(runs, run)
	}
	d.mutex.RUnlock()

	for _, run := range runs {
		run.cancel()
		<-run.done
	}
}
