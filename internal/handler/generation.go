package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	generationModels "rapidsite/internal/domain/models/generation"
	"rapidsite/internal/httputil"
	chatSvc "rapidsite/internal/service/chat"
	generationSvc "rapidsite/internal/service/generation"
)

// GenerationHandler handles generation job HTTP requests.
type GenerationHandler struct {
	sessions *chatSvc.SessionService
	manager  *generationSvc.Manager
	logger   *slog.Logger
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(sessions *chatSvc.SessionService, manager *generationSvc.Manager, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{
		sessions: sessions,
		manager:  manager,
		logger:   logger,
	}
}

// StartGenerationRequest is the body for POST /api/generation. CallerID is
// forwarded from the upstream auth layer and only recorded, never verified here.
type StartGenerationRequest struct {
	TargetID string `json:"target_id"`
	CallerID string `json:"caller_id"`
}

// JobResponse is the wire shape for a job, with a human-readable elapsed
// time alongside the raw timestamps.
type JobResponse struct {
	*generationModels.Job
	Elapsed string `json:"elapsed"`
}

// StartGeneration finalizes the session's brief and launches an async job
// POST /api/generation
// Returns 202 with the pending job; poll its status to learn the outcome
func (h *GenerationHandler) StartGeneration(w http.ResponseWriter, r *http.Request) {
	var req StartGenerationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	brief, transcript, err := h.sessions.BeginGeneration(r.Context(), req.TargetID)
	if err != nil {
		handleError(w, err)
		return
	}

	job, err := h.manager.Start(req.TargetID, brief, transcript)
	if err != nil {
		// The session already entered GENERATING; record the fault so it is
		// not stranded there.
		if failErr := h.sessions.FailGeneration(r.Context(), req.TargetID, err.Error()); failErr != nil {
			h.logger.Error("failed to record generation fault",
				"target_id", req.TargetID, "error", failErr)
		}
		handleError(w, err)
		return
	}

	h.logger.Info("generation job started",
		"target_id", req.TargetID, "caller_id", req.CallerID, "job_id", job.ID)

	httputil.RespondJSON(w, http.StatusAccepted, jobResponse(job))
}

// GetJob returns a snapshot of a generation job
// GET /api/generation/{job_id}
func (h *GenerationHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := PathParam(w, r, "job_id", "Job ID")
	if !ok {
		return
	}

	job, err := h.manager.Status(jobID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, jobResponse(job))
}

func jobResponse(job *generationModels.Job) JobResponse {
	return JobResponse{
		Job:     job,
		Elapsed: formatElapsed(job.Elapsed(time.Now())),
	}
}

// formatElapsed renders a duration as m:ss for display next to a polling
// spinner.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
