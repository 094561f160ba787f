package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
)

func newTestBridge(t *testing.T) (*Bridge, *SessionService) {
	t.Helper()
	svc := newTestService(t, newMemoryRepo())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBridge(svc, logger), svc
}

// appendPromptTurn adds an assistant turn offering a selection and returns
// its id.
func appendPromptTurn(t *testing.T, svc *SessionService, targetID, content string) string {
	t.Helper()
	snap, err := svc.AppendAssistantTurn(context.Background(), targetID, content)
	if err != nil {
		t.Fatalf("AppendAssistantTurn failed: %v", err)
	}
	return snap.Transcript[len(snap.Transcript)-1].ID
}

func TestBridgeSubmitPalette(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	if _, err := svc.CreateSession(ctx, "target-1", "Bakery"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	turnID := appendPromptTurn(t, svc, "target-1", "Here are some color options for you.")

	result, err := bridge.Submit(ctx, "target-1", turnID, &chatModels.SelectionRef{
		PromptKey: chatModels.PromptColorPalette,
		Payload:   json.RawMessage(`{"id": "midnight", "name": "Midnight", "colors": ["#0B132B"]}`),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if result.Snapshot.Brief.ColorPalette.ID != "midnight" {
		t.Errorf("palette = %+v, want midnight applied", result.Snapshot.Brief.ColorPalette)
	}
	if !strings.Contains(result.Confirmation, "Midnight") {
		t.Errorf("confirmation = %q, want the palette name", result.Confirmation)
	}

	// A synthesized user turn carries the payload, already consumed.
	last := result.Snapshot.Transcript[len(result.Snapshot.Transcript)-1]
	if last.Role != chatModels.RoleUser {
		t.Errorf("synthesized turn role = %s, want user", last.Role)
	}
	if last.Selection == nil || !last.InteractionConsumed {
		t.Errorf("synthesized turn = %+v, want selection attached and consumed", last)
	}
	if last.Content != result.Confirmation {
		t.Errorf("synthesized turn content = %q, want the confirmation text", last.Content)
	}

	// The originating turn is marked consumed.
	for _, turn := range result.Snapshot.Transcript {
		if turn.ID == turnID && !turn.InteractionConsumed {
			t.Error("originating turn was not marked consumed")
		}
	}
}

func TestBridgeSubmitStructureConfirmation(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	if _, err := svc.CreateSession(ctx, "target-1", "Bakery"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	turnID := appendPromptTurn(t, svc, "target-1", "Here is a proposed site layout.")

	result, err := bridge.Submit(ctx, "target-1", turnID, &chatModels.SelectionRef{
		PromptKey: chatModels.PromptStructure,
		Payload: json.RawMessage(`[
			{"id": "home", "kind": "page", "name": "Home"},
			{"id": "menu", "kind": "page", "name": "Menu"},
			{"id": "contact", "kind": "page", "name": "Contact"}
		]`),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if !strings.Contains(result.Confirmation, "3 top-level pages") {
		t.Errorf("confirmation = %q, want the page count", result.Confirmation)
	}
	if len(result.Snapshot.Brief.Structure) != 3 {
		t.Errorf("structure has %d nodes, want 3", len(result.Snapshot.Brief.Structure))
	}
}

func TestBridgeRejectsReplay(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	if _, err := svc.CreateSession(ctx, "target-1", "Bakery"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	turnID := appendPromptTurn(t, svc, "target-1", "Pick a palette.")

	sel := &chatModels.SelectionRef{
		PromptKey: chatModels.PromptColorPalette,
		Payload:   json.RawMessage(`["#111111"]`),
	}
	if _, err := bridge.Submit(ctx, "target-1", turnID, sel); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	_, err := bridge.Submit(ctx, "target-1", turnID, sel)
	if !errors.Is(err, domain.ErrStaleRef) {
		t.Errorf("replay error = %v, want stale reference", err)
	}
}

func TestBridgeRejectsUnknownTurn(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	if _, err := svc.CreateSession(ctx, "target-1", "Bakery"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	_, err := bridge.Submit(ctx, "target-1", "no-such-turn", &chatModels.SelectionRef{
		PromptKey: chatModels.PromptColorPalette,
		Payload:   json.RawMessage(`["#111111"]`),
	})
	if !errors.Is(err, domain.ErrStaleRef) {
		t.Errorf("error = %v, want stale reference", err)
	}
}

func TestBridgeRejectsInvalidSelection(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	if _, err := svc.CreateSession(ctx, "target-1", "Bakery"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	turnID := appendPromptTurn(t, svc, "target-1", "Pick a palette.")

	if _, err := bridge.Submit(ctx, "target-1", turnID, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("nil selection error = %v, want validation error", err)
	}

	// A failed merge leaves the originating turn unconsumed.
	_, err := bridge.Submit(ctx, "target-1", turnID, &chatModels.SelectionRef{
		PromptKey: chatModels.PromptStructure,
		Payload: json.RawMessage(`[
			{"id": "dup", "kind": "page", "name": "A"},
			{"id": "dup", "kind": "page", "name": "B"}
		]`),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("invalid structure error = %v, want validation error", err)
	}

	result, err := bridge.Submit(ctx, "target-1", turnID, &chatModels.SelectionRef{
		PromptKey: chatModels.PromptColorPalette,
		Payload:   json.RawMessage(`["#111111"]`),
	})
	if err != nil {
		t.Fatalf("Submit after failed merge should succeed: %v", err)
	}
	if result.Snapshot.Brief.ColorPalette.ID != "custom" {
		t.Errorf("palette = %+v, want the custom colors applied", result.Snapshot.Brief.ColorPalette)
	}
}
