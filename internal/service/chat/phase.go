package chat

import (
	"strings"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
)

// phaseKeywords maps each phase to the topic markers that, when present in
// the latest assistant turn, indicate the conversation has moved on to it.
// Keyword matching accepts false negatives (lingering in a phase) in
// exchange for never corrupting state from a misparsed turn.
var phaseKeywords = map[chatModels.Phase][]string{
	chatModels.PhaseGatheringPurpose: {"purpose"},
	chatModels.PhaseDefiningStyle:    {"style", "look and feel"},
	chatModels.PhaseStructureContent: {"structure", "pages"},
	chatModels.PhaseRefinement:       {"refine", "details"},
	chatModels.PhaseConfirmation:     {"ready to generate", "final confirmation"},
}

// Advance decides, from the latest assistant turn and the current phase,
// whether to move one step forward. It is pure: no side effects, no
// regression, no skipping. GENERATING and COMPLETE are never entered here;
// they require the explicit calls below.
func Advance(current chatModels.Phase, assistantContent string, brief *chatModels.ProjectBrief) chatModels.Phase {
	if current == chatModels.PhaseError || current.Terminal() || current == chatModels.PhaseGenerating {
		return current
	}

	next := current.Next()
	if next == current || next == chatModels.PhaseGenerating {
		return current
	}

	// Don't confirm a brief that has no purpose yet, whatever the turn says.
	if next == chatModels.PhaseConfirmation && brief != nil && brief.Purpose == "" {
		return current
	}

	lower := strings.ToLower(assistantContent)
	for _, keyword := range phaseKeywords[next] {
		if strings.Contains(lower, keyword) {
			return next
		}
	}
	return current
}

// Fault moves any non-terminal phase into the absorbing ERROR state. There
// is no automatic recovery; a caller must Reset explicitly.
func Fault(current chatModels.Phase) chatModels.Phase {
	if current.Terminal() {
		return current
	}
	return chatModels.PhaseError
}

// Reset returns the machine to INTRODUCTION. This is the only way out of
// ERROR.
func Reset() chatModels.Phase {
	return chatModels.PhaseIntroduction
}

// StartGenerating enters GENERATING. Only a confirmed conversation may
// start a generation; everything else is a caller error.
func StartGenerating(current chatModels.Phase) (chatModels.Phase, error) {
	if current != chatModels.PhaseConfirmation {
		return current, &domain.ValidationError{
			Message: "generation can only start from the CONFIRMATION phase, current phase is " + string(current),
		}
	}
	return chatModels.PhaseGenerating, nil
}

// FinishGenerating enters COMPLETE. Only the job manager reporting a
// completed job moves a session here.
func FinishGenerating(current chatModels.Phase) (chatModels.Phase, error) {
	if current != chatModels.PhaseGenerating {
		return current, &domain.ValidationError{
			Message: "cannot complete generation from phase " + string(current),
		}
	}
	return chatModels.PhaseComplete, nil
}
