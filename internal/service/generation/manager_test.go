package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
	generationModels "rapidsite/internal/domain/models/generation"
	domainGen "rapidsite/internal/domain/services/generation"
	"rapidsite/internal/observability"
)

// Shared across tests: prometheus panics on duplicate registration.
var testMetrics = observability.NewMetrics("generation_manager_test")

const markedResponse = "## index.html\n```html\n<!DOCTYPE html><html><body>Hi</body></html>\n```\n"

// stubProvider returns a canned response after an optional delay.
type stubProvider struct {
	text  string
	err   error
	delay time.Duration
}

func (s *stubProvider) Name() string                  { return "stub" }
func (s *stubProvider) SupportsModel(model string) bool { return strings.HasPrefix(model, "stub-") }

func (s *stubProvider) Generate(ctx context.Context, req *domainGen.Request) (*domainGen.Response, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domainGen.Response{Text: s.text, Model: req.Model, StopReason: "end_turn"}, nil
}

// recordingObserver signals terminal notifications on channels.
type recordingObserver struct {
	completed chan int
	failed    chan string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		completed: make(chan int, 1),
		failed:    make(chan string, 1),
	}
}

func (o *recordingObserver) JobCompleted(ctx context.Context, targetID string, artifactCount int) {
	o.completed <- artifactCount
}

func (o *recordingObserver) JobFailed(ctx context.Context, targetID, jobError string) {
	o.failed <- jobError
}

func newTestManager(provider domainGen.Provider, observer JobObserver, timeout, retention time.Duration) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewProviderRegistry()
	registry.Register(provider)
	return NewManager(registry, NewExtractor(logger), observer, testMetrics, "stub-model", timeout, retention, logger)
}

func waitTerminal(t *testing.T, m *Manager, jobID string) *generationModels.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		job, err := m.Status(jobID)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if job.Status.Terminal() {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job %s did not reach a terminal state", jobID)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManagerCompletesJob(t *testing.T) {
	observer := newRecordingObserver()
	m := newTestManager(&stubProvider{text: markedResponse}, observer, time.Minute, time.Hour)

	job, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if job.Status != generationModels.JobPending {
		t.Errorf("initial status = %s, want pending", job.Status)
	}

	final := waitTerminal(t, m, job.ID)
	if final.Status != generationModels.JobCompleted {
		t.Fatalf("status = %s (%s), want completed", final.Status, final.Error)
	}
	if _, ok := final.Result["index.html"]; !ok {
		t.Errorf("result missing index.html: %v", final.Result)
	}
	if final.EndedAt.IsZero() {
		t.Error("terminal job has zero EndedAt")
	}

	select {
	case count := <-observer.completed:
		if count != 1 {
			t.Errorf("observer artifact count = %d, want 1", count)
		}
	case <-time.After(time.Second):
		t.Error("observer was not notified of completion")
	}
}

func TestManagerRejectsDuplicateStart(t *testing.T) {
	m := newTestManager(&stubProvider{text: markedResponse, delay: 2 * time.Second}, nil, time.Minute, time.Hour)

	first, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	_, err = m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if !errors.Is(err, domain.ErrJobRunning) {
		t.Fatalf("second Start error = %v, want job-already-running", err)
	}
	var running *domain.JobAlreadyRunningError
	if !errors.As(err, &running) || running.JobID != first.ID {
		t.Errorf("error does not name the running job: %v", err)
	}

	// A different target is unaffected.
	if _, err := m.Start("target-2", chatModels.NewProjectBrief("Deli"), nil); err != nil {
		t.Errorf("Start for another target failed: %v", err)
	}
}

func TestManagerAllowsRestartAfterTerminal(t *testing.T) {
	observer := newRecordingObserver()
	m := newTestManager(&stubProvider{text: markedResponse}, observer, time.Minute, time.Hour)

	job, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitTerminal(t, m, job.ID)

	if _, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil); err != nil {
		t.Errorf("restart after terminal job failed: %v", err)
	}
}

func TestManagerTimesOut(t *testing.T) {
	observer := newRecordingObserver()
	m := newTestManager(&stubProvider{text: markedResponse, delay: 10 * time.Second}, observer,
		50*time.Millisecond, time.Hour)

	job, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	final := waitTerminal(t, m, job.ID)
	if final.Status != generationModels.JobFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if !strings.Contains(final.Error, "timed out") {
		t.Errorf("error = %q, want a timeout message", final.Error)
	}

	select {
	case <-observer.failed:
	case <-time.After(time.Second):
		t.Error("observer was not notified of failure")
	}
}

func TestManagerFailsOnProviderError(t *testing.T) {
	m := newTestManager(&stubProvider{err: errors.New("rate limited")}, nil, time.Minute, time.Hour)

	job, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	final := waitTerminal(t, m, job.ID)
	if final.Status != generationModels.JobFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if !strings.Contains(final.Error, "rate limited") {
		t.Errorf("error = %q, want the provider error preserved", final.Error)
	}
}

func TestManagerFailsOnEmptyExtraction(t *testing.T) {
	m := newTestManager(&stubProvider{text: "no files here, sorry"}, nil, time.Minute, time.Hour)

	job, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	final := waitTerminal(t, m, job.ID)
	if final.Status != generationModels.JobFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if final.Result != nil {
		t.Errorf("failed job carries a result: %v", final.Result)
	}
}

func TestManagerSweepsExpiredTerminalJobs(t *testing.T) {
	observer := newRecordingObserver()
	m := newTestManager(&stubProvider{text: markedResponse}, observer, time.Minute, 0)

	job, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The observer fires after the job turned terminal.
	select {
	case <-observer.completed:
	case <-time.After(5 * time.Second):
		t.Fatal("job never completed")
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := m.Status(job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Status after sweep = %v, want not found", err)
	}

	// The target is free again.
	if _, err := m.Start("target-1", chatModels.NewProjectBrief("Bakery"), nil); err != nil {
		t.Errorf("Start after sweep failed: %v", err)
	}
}

func TestManagerValidatesInput(t *testing.T) {
	m := newTestManager(&stubProvider{text: markedResponse}, nil, time.Minute, time.Hour)

	if _, err := m.Start("", chatModels.NewProjectBrief("Bakery"), nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty target error = %v, want validation error", err)
	}
	if _, err := m.Start("target-1", nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("nil brief error = %v, want validation error", err)
	}
}
