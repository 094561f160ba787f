package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
	generationModels "rapidsite/internal/domain/models/generation"
	domainGen "rapidsite/internal/domain/services/generation"
	"rapidsite/internal/observability"
)

// JobObserver is notified when a job reaches a terminal state. The session
// layer uses it to move the phase machine and document the outcome in the
// transcript; the manager itself never touches session state.
type JobObserver interface {
	JobCompleted(ctx context.Context, targetID string, artifactCount int)
	JobFailed(ctx context.Context, targetID, jobError string)
}

// Manager starts, tracks, times out and reports on generation jobs. Jobs
// live in memory: acceptable for a single-process deployment, and callers
// learn outcomes by polling Status.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*generationModels.Job
	byTarget map[string]string // target id -> latest job id

	registry  *ProviderRegistry
	extractor *Extractor
	observer  JobObserver
	metrics   *observability.Metrics
	logger    *slog.Logger

	model     string
	timeout   time.Duration
	retention time.Duration
}

// NewManager creates a new generation job manager.
func NewManager(
	registry *ProviderRegistry,
	extractor *Extractor,
	observer JobObserver,
	metrics *observability.Metrics,
	model string,
	timeout time.Duration,
	retention time.Duration,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		jobs:      make(map[string]*generationModels.Job),
		byTarget:  make(map[string]string),
		registry:  registry,
		extractor: extractor,
		observer:  observer,
		metrics:   metrics,
		logger:    logger,
		model:     model,
		timeout:   timeout,
		retention: retention,
	}
}

// Start launches a generation job for a target. A target with a non-terminal
// job is rejected: duplicate starts are a caller error, never a queued retry.
func (m *Manager) Start(targetID string, brief *chatModels.ProjectBrief, transcript []chatModels.Turn) (*generationModels.Job, error) {
	if targetID == "" {
		return nil, &domain.ValidationError{Message: "target id is required"}
	}
	if brief == nil {
		return nil, &domain.ValidationError{Message: "a finalized brief is required"}
	}

	provider, err := m.registry.ForModel(m.model)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	m.mu.Lock()
	if existingID, ok := m.byTarget[targetID]; ok {
		if existing, ok := m.jobs[existingID]; ok && !existing.Status.Terminal() {
			m.mu.Unlock()
			return nil, &domain.JobAlreadyRunningError{TargetID: targetID, JobID: existingID}
		}
	}

	job := &generationModels.Job{
		ID:        uuid.NewString(),
		TargetID:  targetID,
		Status:    generationModels.JobPending,
		StartedAt: time.Now(),
	}
	m.jobs[job.ID] = job
	m.byTarget[targetID] = job.ID
	m.mu.Unlock()

	m.metrics.JobsStarted.Inc()
	m.logger.Info("generation job started",
		"job_id", job.ID,
		"target_id", targetID,
		"model", m.model,
		"timeout", m.timeout,
	)

	go m.run(job.ID, targetID, provider, brief, transcript)

	return job.Clone(), nil
}

// Status returns a snapshot of the job. Polling is idempotent and
// side-effect-free apart from the passive sweep of expired terminal jobs.
func (m *Manager) Status(jobID string) (*generationModels.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked(time.Now())

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return job.Clone(), nil
}

// run executes one generation attempt: the external call raced against the
// timeout, then extraction. It fills the job in and notifies the observer;
// errors never escape the goroutine, they are observable only via polling.
func (m *Manager) run(jobID, targetID string, provider domainGen.Provider, brief *chatModels.ProjectBrief, transcript []chatModels.Turn) {
	// Detached from any request context: the job outlives the request that
	// started it. The deadline is the race's timeout arm, and cancelling it
	// releases the provider's network resources when the timeout wins.
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	req := &domainGen.Request{
		Model:  m.model,
		System: systemPrompt,
		Prompt: BuildPrompt(brief, transcript),
	}

	type outcome struct {
		resp *domainGen.Response
		err  error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		resp, err := provider.Generate(ctx, req)
		resultCh <- outcome{resp: resp, err: err}
	}()

	var result outcome
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		// Timeout won the race; whatever the call eventually returns is
		// discarded.
		m.fail(jobID, targetID, "timeout",
			fmt.Errorf("%w after %s", domain.ErrTimeout, m.timeout))
		return
	}

	if result.err != nil {
		if errors.Is(result.err, context.DeadlineExceeded) {
			m.fail(jobID, targetID, "timeout",
				fmt.Errorf("%w after %s", domain.ErrTimeout, m.timeout))
			return
		}
		m.fail(jobID, targetID, "external_call",
			fmt.Errorf("%w: %v", domain.ErrExternalCall, result.err))
		return
	}

	artifacts := m.extractor.Extract(result.resp.Text)
	if len(artifacts) == 0 {
		// A "successful" response with nothing recoverable is a failure;
		// a job is never completed with an empty result.
		m.fail(jobID, targetID, "extraction", domain.ErrExtraction)
		return
	}

	m.complete(jobID, targetID, ToMap(artifacts))
}

func (m *Manager) complete(jobID, targetID string, files map[string]string) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	job.Status = generationModels.JobCompleted
	job.EndedAt = time.Now()
	job.Result = files
	duration := job.EndedAt.Sub(job.StartedAt)
	m.mu.Unlock()

	m.metrics.ObserveJobFinished("completed", "", duration)
	m.metrics.ArtifactCount.Observe(float64(len(files)))
	m.logger.Info("generation job completed",
		"job_id", jobID,
		"target_id", targetID,
		"files", len(files),
		"duration", duration,
	)

	if m.observer != nil {
		m.observer.JobCompleted(context.Background(), targetID, len(files))
	}
}

func (m *Manager) fail(jobID, targetID, reason string, err error) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	job.Status = generationModels.JobFailed
	job.EndedAt = time.Now()
	job.Error = err.Error()
	duration := job.EndedAt.Sub(job.StartedAt)
	m.mu.Unlock()

	m.metrics.ObserveJobFinished("failed", reason, duration)
	m.logger.Warn("generation job failed",
		"job_id", jobID,
		"target_id", targetID,
		"reason", reason,
		"error", err,
		"duration", duration,
	)

	if m.observer != nil {
		m.observer.JobFailed(context.Background(), targetID, err.Error())
	}
}

// sweepLocked evicts terminal jobs older than the retention window.
// Callers hold m.mu.
func (m *Manager) sweepLocked(now time.Time) {
	for id, job := range m.jobs {
		if !job.Status.Terminal() {
			continue
		}
		if now.Sub(job.EndedAt) <= m.retention {
			continue
		}
		delete(m.jobs, id)
		if m.byTarget[job.TargetID] == id {
			delete(m.byTarget, job.TargetID)
		}
	}
}
