package chat

import (
	"testing"

	chatModels "rapidsite/internal/domain/models/chat"
)

func briefWithPurpose() *chatModels.ProjectBrief {
	b := chatModels.NewProjectBrief("Bakery")
	b.Purpose = "sell bread"
	return b
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name    string
		current chatModels.Phase
		content string
		brief   *chatModels.ProjectBrief
		want    chatModels.Phase
	}{
		{
			name:    "purpose keyword leaves introduction",
			current: chatModels.PhaseIntroduction,
			content: "To start, could you tell me about the main purpose of this site?",
			brief:   chatModels.NewProjectBrief("Bakery"),
			want:    chatModels.PhaseGatheringPurpose,
		},
		{
			name:    "keyword moves one step forward",
			current: chatModels.PhaseGatheringPurpose,
			content: "Great! Now let's talk about the style and look and feel of your site.",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseDefiningStyle,
		},
		{
			name:    "no keyword stays put",
			current: chatModels.PhaseGatheringPurpose,
			content: "Tell me more about what you have in mind.",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseGatheringPurpose,
		},
		{
			name:    "keyword for a later phase does not skip",
			current: chatModels.PhaseGatheringPurpose,
			content: "We are ready to generate your website now!",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseGatheringPurpose,
		},
		{
			name:    "structure keyword from style phase",
			current: chatModels.PhaseDefiningStyle,
			content: "Let's define the structure of your site: which pages do you need?",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseStructureContent,
		},
		{
			name:    "matching is case insensitive",
			current: chatModels.PhaseStructureContent,
			content: "Time to REFINE the details.",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseRefinement,
		},
		{
			name:    "confirmation requires a purpose",
			current: chatModels.PhaseRefinement,
			content: "We are ready to generate, just give me a final confirmation.",
			brief:   chatModels.NewProjectBrief("Bakery"),
			want:    chatModels.PhaseRefinement,
		},
		{
			name:    "confirmation reached with a purpose",
			current: chatModels.PhaseRefinement,
			content: "We are ready to generate, just give me a final confirmation.",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseConfirmation,
		},
		{
			name:    "confirmation never advances into generating",
			current: chatModels.PhaseConfirmation,
			content: "Generating your site now.",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseConfirmation,
		},
		{
			name:    "error is absorbing",
			current: chatModels.PhaseError,
			content: "Let's talk about style.",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseError,
		},
		{
			name:    "complete never moves",
			current: chatModels.PhaseComplete,
			content: "What about the purpose?",
			brief:   briefWithPurpose(),
			want:    chatModels.PhaseComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.current, tt.content, tt.brief)
			if got != tt.want {
				t.Errorf("Advance(%s) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}

func TestAdvanceIsIdempotentPerTurn(t *testing.T) {
	// The same turn content applied twice moves at most one step total:
	// the second application starts from the new phase whose next keyword
	// set no longer matches.
	content := "Now let's discuss the style of your site."
	brief := briefWithPurpose()

	first := Advance(chatModels.PhaseGatheringPurpose, content, brief)
	if first != chatModels.PhaseDefiningStyle {
		t.Fatalf("first application = %s, want DEFINING_STYLE", first)
	}
	second := Advance(first, content, brief)
	if second != first {
		t.Errorf("second application moved again to %s", second)
	}

	content = "What is the purpose of your site?"
	first = Advance(chatModels.PhaseIntroduction, content, brief)
	if first != chatModels.PhaseGatheringPurpose {
		t.Fatalf("first application = %s, want GATHERING_PURPOSE", first)
	}
	second = Advance(first, content, brief)
	if second != first {
		t.Errorf("second application moved again to %s", second)
	}
}

func TestStartGenerating(t *testing.T) {
	got, err := StartGenerating(chatModels.PhaseConfirmation)
	if err != nil {
		t.Fatalf("StartGenerating from CONFIRMATION failed: %v", err)
	}
	if got != chatModels.PhaseGenerating {
		t.Errorf("phase = %s, want GENERATING", got)
	}

	for _, phase := range []chatModels.Phase{
		chatModels.PhaseIntroduction,
		chatModels.PhaseRefinement,
		chatModels.PhaseGenerating,
		chatModels.PhaseComplete,
		chatModels.PhaseError,
	} {
		if _, err := StartGenerating(phase); err == nil {
			t.Errorf("StartGenerating from %s should fail", phase)
		}
	}
}

func TestFinishGenerating(t *testing.T) {
	got, err := FinishGenerating(chatModels.PhaseGenerating)
	if err != nil {
		t.Fatalf("FinishGenerating failed: %v", err)
	}
	if got != chatModels.PhaseComplete {
		t.Errorf("phase = %s, want COMPLETE", got)
	}

	if _, err := FinishGenerating(chatModels.PhaseConfirmation); err == nil {
		t.Error("FinishGenerating from CONFIRMATION should fail")
	}
}

func TestFaultAndReset(t *testing.T) {
	if got := Fault(chatModels.PhaseDefiningStyle); got != chatModels.PhaseError {
		t.Errorf("Fault = %s, want ERROR", got)
	}
	if got := Fault(chatModels.PhaseComplete); got != chatModels.PhaseComplete {
		t.Errorf("Fault on COMPLETE = %s, want COMPLETE", got)
	}
	if got := Reset(); got != chatModels.PhaseIntroduction {
		t.Errorf("Reset = %s, want INTRODUCTION", got)
	}
}
