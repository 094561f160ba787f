package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rapidsite/internal/domain"
	chatModels "rapidsite/internal/domain/models/chat"
	"rapidsite/internal/domain/repositories"
)

func TestRestoreRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	first := newTestService(t, repo)
	ctx := context.Background()

	if _, err := first.CreateSession(ctx, "target-1", "Bakery"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := first.AppendUserTurn(ctx, "target-1", "The purpose of my site is to sell artisan bread."); err != nil {
		t.Fatalf("AppendUserTurn failed: %v", err)
	}
	if _, err := first.AppendAssistantTurn(ctx, "target-1", "Let's talk style and look and feel."); err != nil {
		t.Fatalf("AppendAssistantTurn failed: %v", err)
	}

	// A second service instance simulates a process restart.
	second := newTestService(t, repo)
	snap, err := second.Restore(ctx, "target-1")
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if snap.Phase != chatModels.PhaseDefiningStyle {
		t.Errorf("restored phase = %s, want DEFINING_STYLE", snap.Phase)
	}
	if snap.Brief.Purpose != "sell artisan bread" {
		t.Errorf("restored purpose = %q", snap.Brief.Purpose)
	}
	if len(snap.Transcript) != 3 {
		t.Errorf("restored transcript has %d turns, want 3", len(snap.Transcript))
	}
}

func TestRestoreNotFound(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	if _, err := svc.Restore(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Restore error = %v, want not found", err)
	}
}

func TestRestoreIssuesForceSave(t *testing.T) {
	repo := newMemoryRepo()
	repo.records["target-1"] = &repositories.SessionRecord{
		ID:       "target-1",
		SiteName: "Bakery",
		Brief:    json.RawMessage(`{"site_name": "Bakery", "purpose": "sell bread"}`),
		Phase:    "DEFINING_STYLE",
	}

	svc := newTestService(t, repo)
	if _, err := svc.Restore(context.Background(), "target-1"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	repo.mu.Lock()
	saves := repo.saveCalls
	repo.mu.Unlock()
	if saves == 0 {
		t.Error("restore did not force-save the coerced state")
	}
}

func TestCoerceBriefDoubleEncoded(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	inner := `{"site_name": "Bakery", "purpose": "sell bread", "target_audience": "locals"}`
	raw, _ := json.Marshal(inner)

	b := svc.coerceBrief(raw, "Bakery")
	if b.Purpose != "sell bread" || b.TargetAudience != "locals" {
		t.Errorf("double-encoded brief not recovered: %+v", b)
	}
}

func TestCoerceBriefGarbageFallsBackToDefaults(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	b := svc.coerceBrief(json.RawMessage(`[1, 2, 3]`), "Bakery")
	if b.SiteName != "Bakery" {
		t.Errorf("SiteName = %q, want the default", b.SiteName)
	}
	if len(b.Structure) != 1 || b.Structure[0].Name != "Home" {
		t.Errorf("structure = %+v, want the default Home page", b.Structure)
	}
}

func TestCoerceBriefInvalidStructureKeepsDefault(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	raw := json.RawMessage(`{
		"site_name": "Bakery",
		"purpose": "sell bread",
		"structure": [
			{"id": "dup", "kind": "page", "name": "A"},
			{"id": "dup", "kind": "page", "name": "B"}
		]
	}`)

	b := svc.coerceBrief(raw, "Bakery")
	if b.Purpose != "sell bread" {
		t.Errorf("valid fields should survive, purpose = %q", b.Purpose)
	}
	if len(b.Structure) != 1 || b.Structure[0].Name != "Home" {
		t.Errorf("invalid structure should fall back to default, got %+v", b.Structure)
	}
}

func TestCoerceBriefLegacyPaletteArray(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	raw := json.RawMessage(`{"site_name": "Bakery", "color_palette": ["#111111", "#EEEEEE"]}`)

	b := svc.coerceBrief(raw, "Bakery")
	if b.ColorPalette.ID != "custom" || len(b.ColorPalette.Colors) != 2 {
		t.Errorf("legacy palette array not coerced: %+v", b.ColorPalette)
	}
}

func TestCoerceTurn(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	t.Run("unknown role dropped", func(t *testing.T) {
		turn := svc.coerceTurn(&repositories.TurnRecord{ID: "t1", Role: "narrator", Content: "hi"})
		if turn != nil {
			t.Errorf("turn with unknown role should be dropped, got %+v", turn)
		}
	})

	t.Run("missing id and timestamp repaired", func(t *testing.T) {
		turn := svc.coerceTurn(&repositories.TurnRecord{Role: "user", Content: "hi"})
		if turn == nil {
			t.Fatal("turn dropped")
		}
		if turn.ID == "" {
			t.Error("missing id was not repaired")
		}
		if turn.Timestamp.IsZero() {
			t.Error("missing timestamp was not repaired")
		}
	})

	t.Run("selection consumed flag preserved", func(t *testing.T) {
		sel, _ := json.Marshal(&chatModels.SelectionRef{
			PromptKey: chatModels.PromptColorPalette,
			Payload:   json.RawMessage(`["#111111"]`),
		})
		turn := svc.coerceTurn(&repositories.TurnRecord{
			ID:        "t1",
			Role:      "assistant",
			Content:   "pick one",
			CreatedAt: time.Now(),
			Selection: sel,
		})
		if turn == nil || turn.Selection == nil {
			t.Fatalf("selection not restored: %+v", turn)
		}
		if turn.InteractionConsumed {
			t.Error("unconsumed selection must stay submittable after restore")
		}
	})

	t.Run("unreadable selection dropped", func(t *testing.T) {
		turn := svc.coerceTurn(&repositories.TurnRecord{
			ID:        "t1",
			Role:      "assistant",
			Content:   "pick one",
			Selection: json.RawMessage(`{broken`),
		})
		if turn == nil {
			t.Fatal("turn dropped")
		}
		if turn.Selection != nil {
			t.Error("unreadable selection should be dropped, not kept")
		}
	})
}

func TestCoerceRecordUnknownPhase(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	sess := svc.coerceRecord(&repositories.SessionRecord{
		ID:    "target-1",
		Phase: "HALTING",
	})
	if sess.phase != chatModels.PhaseIntroduction {
		t.Errorf("phase = %s, want fallback to INTRODUCTION", sess.phase)
	}
	if sess.siteName == "" {
		t.Error("site name should fall back to the brief default")
	}
}
