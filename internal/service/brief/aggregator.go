package brief

import (
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"rapidsite/internal/config"
	"rapidsite/internal/domain"
	"rapidsite/internal/domain/models/chat"
	"rapidsite/internal/presets"
)

// Aggregator owns merge operations on the project brief. Merges are pure:
// the input brief is never mutated, callers get back a new copy. Callers
// must still serialize merges per target (single-writer discipline); two
// racing merges would silently lose one side's update.
type Aggregator struct {
	presets *presets.Registry
	logger  *slog.Logger
}

// NewAggregator creates a new brief aggregator.
func NewAggregator(presetRegistry *presets.Registry, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		presets: presetRegistry,
		logger:  logger,
	}
}

// MergeFreeform extracts scalar fields from natural-language turn text.
// It never fails: non-matching text leaves the brief unchanged (apart from
// the recomputed progress). Already-filled fields are not overwritten; a
// structured selection or explicit correction is the way to change them.
func (a *Aggregator) MergeFreeform(b *chat.ProjectBrief, turnText string) *chat.ProjectBrief {
	out := b.Clone()

	if out.Purpose == "" {
		if purpose := extractPurpose(turnText); purpose != "" {
			out.Purpose = purpose
			a.logger.Debug("freeform merge captured purpose", "purpose", purpose)
		}
	}
	if out.TargetAudience == "" {
		if audience := extractAudience(turnText); audience != "" {
			out.TargetAudience = audience
			a.logger.Debug("freeform merge captured audience", "audience", audience)
		}
	}
	if note := extractDesignNote(turnText); note != "" {
		out.Notes.Design = appendNote(out.Notes.Design, note)
	}
	if note := extractContentNote(turnText); note != "" {
		out.Notes.Content = appendNote(out.Notes.Content, note)
	}

	out.ProgressPercent = computeProgress(out)
	return out
}

// MergeStructured applies a typed selection to the brief, replacing the
// corresponding sub-document wholesale. Selections with an unknown prompt
// key leave every brief field untouched (merge isolation).
func (a *Aggregator) MergeStructured(b *chat.ProjectBrief, sel *chat.SelectionRef) (*chat.ProjectBrief, error) {
	payload, err := sel.Decode()
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("malformed %s selection: %v", sel.PromptKey, err)}
	}

	out := b.Clone()

	switch p := payload.(type) {
	case *chat.PaletteSelection:
		out.ColorPalette = normalizePalette(p)

	case *chat.FontSelection:
		out.FontPairing = a.resolveFontPairing(p)

	case *chat.StructureSelection:
		replacement := chat.CloneNodes(p.Structure)
		if replacement == nil {
			// Zero nodes is a valid "undefined structure"; nil is not.
			replacement = []chat.SiteNode{}
		}
		if chat.CountNodes(replacement) > config.MaxStructureNodes {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("structure exceeds %d nodes", config.MaxStructureNodes),
			}
		}
		if err := chat.ValidateStructure(replacement); err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		out.Structure = replacement

	case *chat.GoalSelection:
		if strings.TrimSpace(p.Value) != "" {
			out.Purpose = strings.TrimSpace(p.Value)
		}

	case *chat.UnknownSelection:
		a.logger.Warn("ignoring selection with unknown prompt key", "prompt_key", p.Key)
		return out, nil
	}

	out.ProgressPercent = computeProgress(out)
	return out, nil
}

// normalizePalette coerces the two accepted palette payload shapes into the
// canonical {id, name, colors} form.
func normalizePalette(p *chat.PaletteSelection) chat.ColorPalette {
	palette := chat.ColorPalette{
		ID:     p.ID,
		Name:   p.Name,
		Colors: append([]string(nil), p.Colors...),
	}
	if palette.Colors == nil {
		palette.Colors = []string{}
	}
	if palette.ID == "" {
		palette.ID = "custom"
	}
	if palette.Name == "" {
		palette.Name = "Custom Palette"
	}
	return palette
}

// resolveFontPairing resolves a font selection against the preset catalog.
// A custom selection carries its own fonts; a preset id that can't be found
// keeps the id with empty fonts rather than failing the merge.
func (a *Aggregator) resolveFontPairing(sel *chat.FontSelection) chat.FontPairing {
	if sel.FontID == "custom" && sel.Custom != nil {
		heading := sel.Custom.HeadingFont
		if heading == "" {
			heading = "Montserrat"
		}
		body := sel.Custom.BodyFont
		if body == "" {
			body = "Open Sans"
		}
		return chat.FontPairing{ID: "custom", HeadingFont: heading, BodyFont: body}
	}

	if pairing, ok := a.presets.FontPairing(sel.FontID); ok {
		return pairing
	}

	a.logger.Warn("font pairing preset not found", "font_id", sel.FontID)
	return chat.FontPairing{ID: sel.FontID}
}

// progressFields are the brief fields that count toward progress.
const progressFields = 6

// computeProgress derives the completion percentage from filled fields, so a
// restored session reports the same number the live one did.
func computeProgress(b *chat.ProjectBrief) int {
	filled := 0
	if b.Purpose != "" {
		filled++
	}
	if b.TargetAudience != "" {
		filled++
	}
	if b.DesignStyle != "" {
		filled++
	}
	if len(b.ColorPalette.Colors) > 0 {
		filled++
	}
	if b.FontPairing.ID != "" {
		filled++
	}
	if len(b.Structure) > 0 {
		filled++
	}
	return filled * 100 / progressFields
}

// ValidateForGeneration checks that a brief is complete enough to hand to
// the job manager. Called synchronously at generation start; failures never
// create a job.
func (a *Aggregator) ValidateForGeneration(b *chat.ProjectBrief) error {
	err := validation.ValidateStruct(b,
		validation.Field(&b.SiteName,
			validation.Required,
			validation.Length(1, config.MaxSiteNameLength),
		),
		validation.Field(&b.Purpose, validation.Required),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}

	if err := chat.ValidateStructure(b.Structure); err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}

	return nil
}
