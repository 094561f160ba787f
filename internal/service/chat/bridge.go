package chat

import (
	"context"
	"fmt"
	"log/slog"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
)

// Bridge converts a structured UI selection into a brief mutation plus a
// synthesized chat turn, so the transcript remains a complete, replayable
// audit trail of everything the user decided.
type Bridge struct {
	sessions *SessionService
	logger   *slog.Logger
}

// NewBridge creates a new selection bridge.
func NewBridge(sessions *SessionService, logger *slog.Logger) *Bridge {
	return &Bridge{
		sessions: sessions,
		logger:   logger,
	}
}

// SubmitResult is what a selection submission produced: the new session
// state and the confirmation text the caller forwards to the conversation
// engine to obtain the next assistant turn.
type SubmitResult struct {
	Snapshot     *Snapshot
	Confirmation string
}

// Submit applies a selection originating from the assistant turn identified
// by turnID. The originating turn must still be in the transcript and must
// not have had its interaction consumed already; otherwise the submission is
// rejected with a stale reference error rather than silently no-oping.
func (b *Bridge) Submit(ctx context.Context, targetID, turnID string, sel *chatModels.SelectionRef) (*SubmitResult, error) {
	if sel == nil || sel.PromptKey == "" {
		return nil, &domain.ValidationError{Message: "selection with a prompt key is required"}
	}

	sess, err := b.sessions.lookup(targetID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := mutableLocked(sess); err != nil {
		return nil, err
	}

	origin := findTurnLocked(sess, turnID)
	if origin == nil {
		return nil, &domain.StaleReferenceError{TurnID: turnID}
	}
	if origin.InteractionConsumed {
		// Replays must not re-apply a selection.
		return nil, &domain.StaleReferenceError{TurnID: turnID}
	}

	merged, err := b.sessions.aggregator.MergeStructured(sess.brief, sel)
	if err != nil {
		return nil, err
	}

	confirmation := b.confirmationText(sel, merged)

	// The synthesized turn carries the original payload, already marked
	// consumed, so replaying the transcript cannot re-trigger it.
	turn := chatModels.NewTurn(chatModels.RoleUser, confirmation)
	turn.Selection = sel
	turn.InteractionConsumed = true

	origin.InteractionConsumed = true
	sess.brief = merged
	appendLocked(sess, turn)
	sess.dirty = true
	b.sessions.save(ctx, sess)

	b.logger.Info("selection applied",
		"target_id", targetID,
		"prompt_key", sel.PromptKey,
		"origin_turn", turnID,
	)

	return &SubmitResult{
		Snapshot:     snapshotLocked(sess),
		Confirmation: confirmation,
	}, nil
}

// confirmationText synthesizes the human-readable confirmation whose wording
// depends on the prompt key. The merged brief supplies resolved names.
func (b *Bridge) confirmationText(sel *chatModels.SelectionRef, merged *chatModels.ProjectBrief) string {
	switch sel.PromptKey {
	case chatModels.PromptColorPalette:
		return fmt.Sprintf("I selected the '%s' color palette.", merged.ColorPalette.Name)
	case chatModels.PromptFontPairing:
		if merged.FontPairing.HeadingFont != "" {
			return fmt.Sprintf("I chose the '%s + %s' font pairing.",
				merged.FontPairing.HeadingFont, merged.FontPairing.BodyFont)
		}
		return fmt.Sprintf("I chose the '%s' font pairing.", merged.FontPairing.ID)
	case chatModels.PromptStructure:
		pages := 0
		for _, node := range merged.Structure {
			if node.Kind == chatModels.NodePage {
				pages++
			}
		}
		return fmt.Sprintf("I updated the website structure; it now has %d top-level pages.", pages)
	case chatModels.PromptPrimaryGoal:
		return fmt.Sprintf("I set the primary goal to: '%s'.", merged.Purpose)
	default:
		return fmt.Sprintf("I submitted a '%s' selection.", sel.PromptKey)
	}
}

func findTurnLocked(sess *session, turnID string) *chatModels.Turn {
	for _, turn := range sess.transcript {
		if turn.ID == turnID {
			return turn
		}
	}
	return nil
}
