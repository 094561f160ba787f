package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PromptKey identifies which brief field an interactive selection targets.
type PromptKey string

const (
	PromptColorPalette PromptKey = "colorPalette"
	PromptFontPairing  PromptKey = "fontPairing"
	PromptStructure    PromptKey = "structure"
	PromptPrimaryGoal  PromptKey = "primaryGoal"
)

// SelectionRef is a structured UI selection as produced by an interactive
// component. The payload shape depends on PromptKey; Decode resolves it into
// a typed variant. A ref is consumed exactly once by the selection bridge.
type SelectionRef struct {
	PromptKey     PromptKey       `json:"prompt_key"`
	ComponentKind string          `json:"component_kind,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// SelectionPayload is the tagged union of known selection payload shapes.
// Unrecognized prompt keys decode to UnknownSelection rather than failing,
// so a newer UI can't break an older orchestrator.
type SelectionPayload interface {
	selectionPayload()
}

// PaletteSelection is a chosen or edited color palette. The UI may send
// either {"colors": [...], "name": ..., "id": ...} or a bare array of colors;
// both normalize into the same struct.
type PaletteSelection struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name,omitempty"`
	Colors []string `json:"colors"`
}

// UnmarshalJSON accepts both the object form and a bare color array.
func (p *PaletteSelection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Colors)
	}
	type alias PaletteSelection
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*p = PaletteSelection(a)
	return nil
}

// FontSelection is a chosen font pairing: either a preset id, or id "custom"
// with the pairing spelled out.
type FontSelection struct {
	FontID string       `json:"font_id"`
	Custom *FontPairing `json:"custom_pairing,omitempty"`
}

// StructureSelection is an edited site structure tree. The UI may send the
// node array directly or wrapped as {"structure": [...]}.
type StructureSelection struct {
	Structure []SiteNode `json:"structure"`
}

// UnmarshalJSON accepts both the wrapped and the bare-array form.
func (s *StructureSelection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &s.Structure)
	}
	type alias StructureSelection
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*s = StructureSelection(a)
	return nil
}

// GoalSelection is a chosen primary goal for the site.
type GoalSelection struct {
	Value string `json:"value"`
}

// UnmarshalJSON accepts both {"value": "..."} and a bare string.
func (g *GoalSelection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &g.Value)
	}
	type alias GoalSelection
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*g = GoalSelection(a)
	return nil
}

// UnknownSelection carries a payload whose prompt key this version does not
// understand. The aggregator must not touch any brief field for these.
type UnknownSelection struct {
	Key PromptKey
	Raw json.RawMessage
}

func (*PaletteSelection) selectionPayload()   {}
func (*FontSelection) selectionPayload()      {}
func (*StructureSelection) selectionPayload() {}
func (*GoalSelection) selectionPayload()      {}
func (*UnknownSelection) selectionPayload()   {}

// Decode resolves the raw payload into its typed variant based on PromptKey.
func (s *SelectionRef) Decode() (SelectionPayload, error) {
	switch s.PromptKey {
	case PromptColorPalette:
		var p PaletteSelection
		if err := json.Unmarshal(s.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode colorPalette payload: %w", err)
		}
		return &p, nil
	case PromptFontPairing:
		var f FontSelection
		if err := json.Unmarshal(s.Payload, &f); err != nil {
			return nil, fmt.Errorf("decode fontPairing payload: %w", err)
		}
		return &f, nil
	case PromptStructure:
		var st StructureSelection
		if err := json.Unmarshal(s.Payload, &st); err != nil {
			return nil, fmt.Errorf("decode structure payload: %w", err)
		}
		return &st, nil
	case PromptPrimaryGoal:
		var g GoalSelection
		if err := json.Unmarshal(s.Payload, &g); err != nil {
			return nil, fmt.Errorf("decode primaryGoal payload: %w", err)
		}
		return &g, nil
	default:
		return &UnknownSelection{Key: s.PromptKey, Raw: s.Payload}, nil
	}
}
