package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	chatModels "rapidsite/internal/domain/models/chat"
	"rapidsite/internal/domain/repositories"
)

// coerceRecord turns a stored session record back into live state. Storage
// contents are treated as hostile: string-encoded JSON gets parsed, malformed
// dates become "now", and malformed sub-documents fall back to defaults.
// Restoration never aborts over a salvageable record.
func (s *SessionService) coerceRecord(record *repositories.SessionRecord) *session {
	sess := &session{
		id:       record.ID,
		siteName: record.SiteName,
		brief:    s.coerceBrief(record.Brief, record.SiteName),
		phase:    chatModels.ParsePhase(record.Phase),
	}
	if sess.siteName == "" {
		sess.siteName = sess.brief.SiteName
	}

	for _, turnRecord := range record.Turns {
		if turn := s.coerceTurn(&turnRecord); turn != nil {
			appendLocked(sess, turn)
		}
	}

	return sess
}

// coerceBrief recovers a brief field-by-field. Anything unrecoverable keeps
// the default for that field rather than poisoning the rest.
func (s *SessionService) coerceBrief(raw json.RawMessage, siteName string) *chatModels.ProjectBrief {
	b := chatModels.NewProjectBrief(siteName)
	if len(raw) == 0 {
		return b
	}

	doc := gjson.ParseBytes(raw)
	if doc.Type == gjson.String {
		// Some writers double-encode the brief as a JSON string.
		doc = gjson.Parse(doc.String())
	}
	if !doc.IsObject() {
		s.logger.Warn("stored brief is not an object, using defaults", "target_id", siteName)
		return b
	}

	if v := doc.Get("site_name"); v.Exists() && v.String() != "" {
		b.SiteName = v.String()
	}
	b.Purpose = doc.Get("purpose").String()
	b.TargetAudience = doc.Get("target_audience").String()
	if v := doc.Get("design_style"); v.Exists() && v.String() != "" {
		b.DesignStyle = v.String()
	}
	b.ProgressPercent = int(doc.Get("progress_percent").Int())

	if palette := doc.Get("color_palette"); palette.Exists() {
		coercePalette(palette, &b.ColorPalette)
	}
	if font := doc.Get("font_pairing"); font.IsObject() {
		if id := font.Get("id").String(); id != "" {
			b.FontPairing = chatModels.FontPairing{
				ID:          id,
				HeadingFont: font.Get("heading_font").String(),
				BodyFont:    font.Get("body_font").String(),
			}
		}
	}

	if structure := doc.Get("structure"); structure.IsArray() {
		var nodes []chatModels.SiteNode
		if err := json.Unmarshal([]byte(structure.Raw), &nodes); err == nil {
			if err := chatModels.ValidateStructure(nodes); err == nil {
				b.Structure = nodes
			} else {
				s.logger.Warn("stored structure invalid, using default", "error", err)
			}
		} else {
			s.logger.Warn("stored structure unreadable, using default", "error", err)
		}
	}

	if snippets := doc.Get("content_snippets"); snippets.IsObject() {
		snippets.ForEach(func(key, value gjson.Result) bool {
			b.ContentSnippets[key.String()] = value.String()
			return true
		})
	}
	b.Notes.Design = doc.Get("notes.design").String()
	b.Notes.Content = doc.Get("notes.content").String()

	return b
}

// coercePalette accepts the object form and the legacy bare-array form.
func coercePalette(result gjson.Result, out *chatModels.ColorPalette) {
	readColors := func(arr gjson.Result) []string {
		var colors []string
		arr.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String {
				colors = append(colors, value.String())
			}
			return true
		})
		return colors
	}

	if result.IsArray() {
		if colors := readColors(result); len(colors) > 0 {
			*out = chatModels.ColorPalette{ID: "custom", Name: "Custom Palette", Colors: colors}
		}
		return
	}
	if !result.IsObject() {
		return
	}
	colors := readColors(result.Get("colors"))
	if len(colors) == 0 {
		return
	}
	palette := chatModels.ColorPalette{
		ID:     result.Get("id").String(),
		Name:   result.Get("name").String(),
		Colors: colors,
	}
	if palette.ID == "" {
		palette.ID = "custom"
	}
	if palette.Name == "" {
		palette.Name = "Custom Palette"
	}
	*out = palette
}

// coerceTurn rebuilds one transcript turn. Turns with an unknown role are
// dropped with a warning; missing ids and timestamps are repaired.
func (s *SessionService) coerceTurn(record *repositories.TurnRecord) *chatModels.Turn {
	role := chatModels.Role(record.Role)
	if !role.Valid() {
		s.logger.Warn("dropping stored turn with unknown role", "turn_id", record.ID, "role", record.Role)
		return nil
	}

	turn := &chatModels.Turn{
		ID:                  record.ID,
		Role:                role,
		Content:             record.Content,
		Timestamp:           record.CreatedAt,
		InteractionConsumed: record.InteractionConsumed,
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	if len(record.Selection) > 0 {
		var sel chatModels.SelectionRef
		if err := json.Unmarshal(record.Selection, &sel); err != nil {
			s.logger.Warn("dropping unreadable selection payload", "turn_id", turn.ID, "error", err)
		} else if sel.PromptKey != "" {
			// The stored consumed flag is kept as-is: restoring does not
			// re-apply selections, and an unconsumed one may still be
			// submitted after the reload.
			turn.Selection = &sel
		}
	}

	return turn
}
