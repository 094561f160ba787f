package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
	"rapidsite/internal/httputil"
	chatSvc "rapidsite/internal/service/chat"
)

// SessionHandler handles session HTTP requests.
// Handlers only communicate with services, never repositories.
type SessionHandler struct {
	sessions *chatSvc.SessionService
	bridge   *chatSvc.Bridge
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *chatSvc.SessionService, bridge *chatSvc.Bridge, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		bridge:   bridge,
		logger:   logger,
	}
}

// CreateSessionRequest is the body for POST /api/sessions.
type CreateSessionRequest struct {
	TargetID string `json:"target_id"`
	SiteName string `json:"site_name"`
}

// CreateSession creates a new session
// POST /api/sessions
// Returns 201 if created, 409 with the existing session if duplicate
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snapshot, err := h.sessions.CreateSession(r.Context(), req.TargetID, req.SiteName)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			existing, getErr := h.sessions.Get(req.TargetID)
			if getErr != nil {
				handleError(w, getErr)
				return
			}
			httputil.RespondJSON(w, http.StatusConflict, existing)
			return
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, snapshot)
}

// GetSession retrieves a session, restoring it from storage when it is not
// live in memory
// GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	targetID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	snapshot, err := h.sessions.Restore(r.Context(), targetID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snapshot)
}

// AppendTurnRequest is the body for POST /api/sessions/{id}/turns.
type AppendTurnRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AppendTurn appends a turn to the transcript
// POST /api/sessions/{id}/turns
func (h *SessionHandler) AppendTurn(w http.ResponseWriter, r *http.Request) {
	targetID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req AppendTurnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		snapshot *chatSvc.Snapshot
		err      error
	)
	switch chatModels.Role(req.Role) {
	case chatModels.RoleUser:
		snapshot, err = h.sessions.AppendUserTurn(r.Context(), targetID, req.Content)
	case chatModels.RoleAssistant:
		snapshot, err = h.sessions.AppendAssistantTurn(r.Context(), targetID, req.Content)
	default:
		httputil.RespondError(w, http.StatusBadRequest, "role must be 'user' or 'assistant'")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snapshot)
}

// SubmitSelectionRequest is the body for POST /api/sessions/{id}/selections.
type SubmitSelectionRequest struct {
	TurnID    string                   `json:"turn_id"`
	Selection *chatModels.SelectionRef `json:"selection"`
}

// SelectionResponse pairs the updated session with the synthesized
// confirmation the frontend forwards to the conversation engine.
type SelectionResponse struct {
	Session      *chatSvc.Snapshot `json:"session"`
	Confirmation string            `json:"confirmation"`
}

// SubmitSelection applies a structured UI selection
// POST /api/sessions/{id}/selections
// Returns 409 when the originating turn is stale or already consumed
func (h *SessionHandler) SubmitSelection(w http.ResponseWriter, r *http.Request) {
	targetID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req SubmitSelectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TurnID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "turn_id is required")
		return
	}

	result, err := h.bridge.Submit(r.Context(), targetID, req.TurnID, req.Selection)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, SelectionResponse{
		Session:      result.Snapshot,
		Confirmation: result.Confirmation,
	})
}

// ResetSession returns an errored session to the start of the flow
// POST /api/sessions/{id}/reset
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	targetID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	snapshot, err := h.sessions.Reset(r.Context(), targetID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snapshot)
}
