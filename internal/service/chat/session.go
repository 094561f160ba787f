package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rapidsite/internal/config"
	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
	"rapidsite/internal/domain/repositories"
	"rapidsite/internal/observability"
	briefSvc "rapidsite/internal/service/brief"
)

// session is the live state for one target. All access goes through its
// mutex: the single-writer discipline for the brief and the phase machine
// is enforced here rather than trusted to callers.
type session struct {
	mu sync.Mutex

	id         string
	siteName   string
	transcript []*chatModels.Turn
	brief      *chatModels.ProjectBrief
	phase      chatModels.Phase

	// restoreComplete gates autosave: no save may be issued for this
	// session while restoration is still in flight.
	restoreComplete bool
	dirty           bool
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID         string                   `json:"id"`
	SiteName   string                   `json:"site_name"`
	Transcript []chatModels.Turn        `json:"transcript"`
	Brief      *chatModels.ProjectBrief `json:"brief"`
	Phase      chatModels.Phase         `json:"phase"`
}

// SessionService owns the live sessions, one per target, and serializes all
// mutation for a target through that session's lock.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*session

	repo       repositories.SessionRepository
	aggregator *briefSvc.Aggregator
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(repo repositories.SessionRepository, aggregator *briefSvc.Aggregator, metrics *observability.Metrics, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions:   make(map[string]*session),
		repo:       repo,
		aggregator: aggregator,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateSession initializes a fresh session for a target: default brief,
// greeting turn, phase GATHERING_PURPOSE.
func (s *SessionService) CreateSession(ctx context.Context, targetID, siteName string) (*Snapshot, error) {
	if targetID == "" {
		return nil, &domain.ValidationError{Message: "target id is required"}
	}
	if len(siteName) > config.MaxSiteNameLength {
		return nil, &domain.ValidationError{Message: "site name is too long"}
	}

	b := chatModels.NewProjectBrief(siteName)
	greeting := chatModels.NewTurn(chatModels.RoleAssistant, fmt.Sprintf(
		"Hi! I'm your website design partner. Let's create a site for %s. To start, could you tell me about the main purpose of this site?",
		b.SiteName,
	))

	sess := &session{
		id:              targetID,
		siteName:        b.SiteName,
		transcript:      []*chatModels.Turn{greeting},
		brief:           b,
		phase:           chatModels.PhaseGatheringPurpose,
		restoreComplete: true, // nothing to restore for a fresh session
	}

	s.mu.Lock()
	if _, exists := s.sessions[targetID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", targetID, domain.ErrConflict)
	}
	s.sessions[targetID] = sess
	s.mu.Unlock()
	s.metrics.ActiveSessions.Inc()

	briefJSON, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal brief: %w", err)
	}
	if err := s.repo.Create(ctx, &repositories.SessionRecord{
		ID:       targetID,
		SiteName: b.SiteName,
		Brief:    briefJSON,
		Phase:    string(sess.phase),
	}); err != nil {
		s.mu.Lock()
		delete(s.sessions, targetID)
		s.mu.Unlock()
		s.metrics.ActiveSessions.Dec()
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.save(ctx, sess)
	s.logger.Info("session created", "target_id", targetID, "site_name", b.SiteName)
	return snapshotLocked(sess), nil
}

// Restore loads a session from durable storage, coercing malformed stored
// state to usable defaults. Autosave stays disabled until the loaded state
// is installed;
// one force-save is then issued so anything recovered during coercion is
// durably stored in its final shape.
func (s *SessionService) Restore(ctx context.Context, targetID string) (*Snapshot, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[targetID]; ok {
		s.mu.Unlock()
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return snapshotLocked(sess), nil
	}
	s.mu.Unlock()

	record, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	sess := s.coerceRecord(record)

	s.mu.Lock()
	if existing, ok := s.sessions[targetID]; ok {
		// Lost the race to another restore; use whichever won.
		s.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return snapshotLocked(existing), nil
	}
	s.sessions[targetID] = sess
	s.mu.Unlock()
	s.metrics.ActiveSessions.Inc()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Restoration is complete only now; issue the one force-save.
	sess.restoreComplete = true
	s.save(ctx, sess)

	s.logger.Info("session restored",
		"target_id", targetID,
		"turns", len(sess.transcript),
		"phase", sess.phase,
	)
	return snapshotLocked(sess), nil
}

// Get returns a snapshot of a live session.
func (s *SessionService) Get(targetID string) (*Snapshot, error) {
	sess, err := s.lookup(targetID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshotLocked(sess), nil
}

// AppendUserTurn appends a user turn, running the best-effort freeform merge
// over its text.
func (s *SessionService) AppendUserTurn(ctx context.Context, targetID, content string) (*Snapshot, error) {
	return s.appendTurn(ctx, targetID, chatModels.RoleUser, content)
}

// AppendAssistantTurn appends an assistant turn and lets the phase machine
// inspect it.
func (s *SessionService) AppendAssistantTurn(ctx context.Context, targetID, content string) (*Snapshot, error) {
	return s.appendTurn(ctx, targetID, chatModels.RoleAssistant, content)
}

func (s *SessionService) appendTurn(ctx context.Context, targetID string, role chatModels.Role, content string) (*Snapshot, error) {
	if content == "" {
		return nil, &domain.ValidationError{Message: "turn content is required"}
	}
	if len(content) > config.MaxTurnContentLength {
		return nil, &domain.ValidationError{Message: "turn content is too long"}
	}

	sess, err := s.lookup(targetID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := mutableLocked(sess); err != nil {
		return nil, err
	}

	turn := chatModels.NewTurn(role, content)
	appendLocked(sess, turn)

	switch role {
	case chatModels.RoleUser:
		sess.brief = s.aggregator.MergeFreeform(sess.brief, content)
	case chatModels.RoleAssistant:
		next := Advance(sess.phase, content, sess.brief)
		if next != sess.phase {
			s.logger.Info("phase advanced", "target_id", targetID, "from", sess.phase, "to", next)
			sess.phase = next
		}
	}

	sess.dirty = true
	s.save(ctx, sess)
	return snapshotLocked(sess), nil
}

// Fault moves the session into the absorbing ERROR phase and documents the
// fault in the transcript with a system turn.
func (s *SessionService) Fault(ctx context.Context, targetID, reason string) error {
	sess, err := s.lookup(targetID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	appendLocked(sess, chatModels.NewTurn(chatModels.RoleSystem, "Something went wrong: "+reason))
	sess.phase = Fault(sess.phase)
	sess.dirty = true
	s.save(ctx, sess)
	return nil
}

// Reset returns an ERROR session to INTRODUCTION. This is the only recovery
// path out of ERROR; sessions in any other phase only move forward, so a
// reset request for them is rejected.
func (s *SessionService) Reset(ctx context.Context, targetID string) (*Snapshot, error) {
	sess, err := s.lookup(targetID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase != chatModels.PhaseError {
		return nil, &domain.ValidationError{Message: "only a session in ERROR can be reset"}
	}
	sess.phase = Reset()
	sess.dirty = true
	s.save(ctx, sess)
	return snapshotLocked(sess), nil
}

// BeginGeneration moves a confirmed session into GENERATING and returns the
// brief and transcript the job should be built from.
func (s *SessionService) BeginGeneration(ctx context.Context, targetID string) (*chatModels.ProjectBrief, []chatModels.Turn, error) {
	sess, err := s.lookup(targetID)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := StartGenerating(sess.phase)
	if err != nil {
		return nil, nil, err
	}
	if err := s.aggregator.ValidateForGeneration(sess.brief); err != nil {
		return nil, nil, err
	}

	sess.phase = next
	sess.dirty = true
	s.save(ctx, sess)

	snap := snapshotLocked(sess)
	return snap.Brief, snap.Transcript, nil
}

// FinishGeneration records a completed job: the session moves to COMPLETE
// and a system turn documents the produced artifacts.
func (s *SessionService) FinishGeneration(ctx context.Context, targetID string, artifactCount int) error {
	sess, err := s.lookup(targetID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := FinishGenerating(sess.phase)
	if err != nil {
		return err
	}
	sess.phase = next
	appendLocked(sess, chatModels.NewTurn(chatModels.RoleSystem,
		fmt.Sprintf("Website generation completed with %d files.", artifactCount)))
	sess.dirty = true
	s.save(ctx, sess)
	return nil
}

// FailGeneration records a failed job: a system turn carries the job's error
// string verbatim so the transcript documents the fault, and the session
// enters ERROR.
func (s *SessionService) FailGeneration(ctx context.Context, targetID, jobError string) error {
	sess, err := s.lookup(targetID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	appendLocked(sess, chatModels.NewTurn(chatModels.RoleSystem,
		"Website generation failed: "+jobError))
	sess.phase = Fault(sess.phase)
	sess.dirty = true
	s.save(ctx, sess)
	return nil
}

// StartAutosave flushes dirty sessions on the configured interval until the
// context is cancelled. Sessions whose restoration has not completed are
// skipped; the restore path issues its own force-save.
func (s *SessionService) StartAutosave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flushDirty(ctx)
		}
	}
}

func (s *SessionService) flushDirty(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.dirty && sess.restoreComplete {
			s.save(ctx, sess)
		}
		sess.mu.Unlock()
	}
}

func (s *SessionService) lookup(targetID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[targetID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", targetID, domain.ErrNotFound)
	}
	return sess, nil
}

// save persists the session, degrading to a brief+phase-only save when the
// full record cannot be built or written. Persistence failures are logged
// and swallowed: losing a save must not fail the user-visible flow.
// Callers hold sess.mu.
func (s *SessionService) save(ctx context.Context, sess *session) {
	if !sess.restoreComplete {
		s.logger.Debug("autosave skipped, restoration incomplete", "target_id", sess.id)
		return
	}

	briefJSON, err := json.Marshal(sess.brief)
	if err != nil {
		// Without a serializable brief there is nothing meaningful to save.
		s.logger.Error("session save failed, brief not serializable",
			"target_id", sess.id, "error", err)
		return
	}

	record := &repositories.SessionRecord{
		ID:       sess.id,
		SiteName: sess.siteName,
		Brief:    briefJSON,
		Phase:    string(sess.phase),
	}

	turns, turnErr := buildTurnRecords(sess.transcript)
	if turnErr != nil {
		// Transcript failed to serialize; save what did succeed.
		s.logger.Warn("partial session save, transcript not serializable",
			"target_id", sess.id, "error", turnErr)
		if err := s.repo.SaveBriefAndPhase(ctx, sess.id, briefJSON, string(sess.phase)); err != nil {
			s.logger.Error("partial session save failed", "target_id", sess.id, "error", err)
			return
		}
		sess.dirty = false
		return
	}
	record.Turns = turns

	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Warn("session save failed, retrying without transcript",
			"target_id", sess.id, "error", err)
		if err := s.repo.SaveBriefAndPhase(ctx, sess.id, briefJSON, string(sess.phase)); err != nil {
			s.logger.Error("partial session save failed", "target_id", sess.id, "error", err)
		}
		return
	}
	sess.dirty = false
}

func buildTurnRecords(transcript []*chatModels.Turn) ([]repositories.TurnRecord, error) {
	records := make([]repositories.TurnRecord, 0, len(transcript))
	for _, turn := range transcript {
		record := repositories.TurnRecord{
			ID:                  turn.ID,
			Role:                string(turn.Role),
			Content:             turn.Content,
			CreatedAt:           turn.Timestamp,
			InteractionConsumed: turn.InteractionConsumed,
		}
		if turn.Selection != nil {
			selection, err := json.Marshal(turn.Selection)
			if err != nil {
				return nil, fmt.Errorf("marshal selection for turn %s: %w", turn.ID, err)
			}
			record.Selection = selection
		}
		records = append(records, record)
	}
	return records, nil
}

// appendLocked adds a turn, dropping the oldest once the cap is reached.
func appendLocked(sess *session, turn *chatModels.Turn) {
	sess.transcript = append(sess.transcript, turn)
	if len(sess.transcript) > config.MaxTranscriptTurns {
		sess.transcript = sess.transcript[len(sess.transcript)-config.MaxTranscriptTurns:]
	}
}

// mutableLocked rejects mutation for sessions that have left the elicitation
// flow.
func mutableLocked(sess *session) error {
	switch sess.phase {
	case chatModels.PhaseGenerating:
		return &domain.ValidationError{Message: "session is generating, wait for the job to finish"}
	case chatModels.PhaseComplete:
		return &domain.ValidationError{Message: "session is complete"}
	case chatModels.PhaseError:
		return &domain.ValidationError{Message: "session is in ERROR, reset it first"}
	}
	return nil
}

func snapshotLocked(sess *session) *Snapshot {
	transcript := make([]chatModels.Turn, len(sess.transcript))
	for i, turn := range sess.transcript {
		transcript[i] = *turn
	}
	return &Snapshot{
		ID:         sess.id,
		SiteName:   sess.siteName,
		Transcript: transcript,
		Brief:      sess.brief.Clone(),
		Phase:      sess.phase,
	}
}
