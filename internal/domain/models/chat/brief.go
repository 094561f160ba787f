package chat

import (
	"github.com/google/uuid"
)

// ColorPalette is a named set of hex colors.
type ColorPalette struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// FontPairing is a heading/body font combination. ID is either a preset id
// or "custom" when the user supplied their own fonts.
type FontPairing struct {
	ID          string `json:"id"`
	HeadingFont string `json:"heading_font,omitempty"`
	BodyFont    string `json:"body_font,omitempty"`
}

// BriefNotes holds freeform notes the conversation accumulated but that do
// not fit a structured field.
type BriefNotes struct {
	Design  string `json:"design,omitempty"`
	Content string `json:"content,omitempty"`
}

// ProjectBrief is the structured specification accumulated from the
// conversation. It is created once per target and mutated only through the
// aggregator and the selection bridge; both hand back new copies.
type ProjectBrief struct {
	SiteName        string            `json:"site_name"`
	Purpose         string            `json:"purpose"`
	TargetAudience  string            `json:"target_audience"`
	DesignStyle     string            `json:"design_style"`
	ColorPalette    ColorPalette      `json:"color_palette"`
	FontPairing     FontPairing       `json:"font_pairing"`
	Structure       []SiteNode        `json:"structure"`
	ProgressPercent int               `json:"progress_percent"`
	ContentSnippets map[string]string `json:"content_snippets"`
	Notes           BriefNotes        `json:"notes"`
}

// NewProjectBrief creates the default brief for a new target: one Home page
// and the default light palette and font pairing.
func NewProjectBrief(siteName string) *ProjectBrief {
	if siteName == "" {
		siteName = "Untitled Site"
	}
	return &ProjectBrief{
		SiteName:    siteName,
		DesignStyle: "modern",
		ColorPalette: ColorPalette{
			ID:     "default-light",
			Name:   "Default Light",
			Colors: []string{"#FFFFFF", "#F8F9FA", "#6C757D", "#343A40", "#0D6EFD"},
		},
		FontPairing: FontPairing{
			ID:          "inter-roboto",
			HeadingFont: "Inter",
			BodyFont:    "Roboto",
		},
		Structure: []SiteNode{
			{ID: uuid.NewString(), Kind: NodePage, Name: "Home", Children: []SiteNode{}},
		},
		ContentSnippets: map[string]string{},
	}
}

// Clone returns a deep copy of the brief.
func (b *ProjectBrief) Clone() *ProjectBrief {
	out := *b
	out.ColorPalette.Colors = append([]string(nil), b.ColorPalette.Colors...)
	out.Structure = CloneNodes(b.Structure)
	if b.ContentSnippets != nil {
		out.ContentSnippets = make(map[string]string, len(b.ContentSnippets))
		for k, v := range b.ContentSnippets {
			out.ContentSnippets[k] = v
		}
	}
	return &out
}
