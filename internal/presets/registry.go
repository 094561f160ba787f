package presets

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"rapidsite/internal/domain/models/chat"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the predefined color palettes and font pairings offered to
// the UI and used to resolve selections by id.
type Registry struct {
	palettes []chat.ColorPalette
	fonts    []chat.FontPairing
	mu       sync.RWMutex
}

type catalogFile struct {
	Palettes []chat.ColorPalette `yaml:"palettes"`
	Fonts    []fontEntry         `yaml:"font_pairings"`
}

type fontEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	HeadingFont string `yaml:"heading_font"`
	BodyFont    string `yaml:"body_font"`
}

// NewRegistry creates a registry and loads the embedded YAML catalogs.
func NewRegistry() (*Registry, error) {
	r := &Registry{}

	if err := r.loadFile("palettes"); err != nil {
		return nil, fmt.Errorf("failed to load palette presets: %w", err)
	}
	if err := r.loadFile("font_pairings"); err != nil {
		return nil, fmt.Errorf("failed to load font pairing presets: %w", err)
	}

	return r, nil
}

func (r *Registry) loadFile(name string) error {
	filename := fmt.Sprintf("config/%s.yaml", name)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.palettes = append(r.palettes, catalog.Palettes...)
	for _, f := range catalog.Fonts {
		r.fonts = append(r.fonts, chat.FontPairing{
			ID:          f.ID,
			HeadingFont: f.HeadingFont,
			BodyFont:    f.BodyFont,
		})
	}
	return nil
}

// Palettes returns all predefined color palettes.
func (r *Registry) Palettes() []chat.ColorPalette {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]chat.ColorPalette(nil), r.palettes...)
}

// FontPairings returns all predefined font pairings.
func (r *Registry) FontPairings() []chat.FontPairing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]chat.FontPairing(nil), r.fonts...)
}

// FontPairing looks up a font pairing by preset id.
func (r *Registry) FontPairing(id string) (chat.FontPairing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.fonts {
		if f.ID == id {
			return f, true
		}
	}
	return chat.FontPairing{}, false
}

// Palette looks up a color palette by preset id.
func (r *Registry) Palette(id string) (chat.ColorPalette, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.palettes {
		if p.ID == id {
			return p, true
		}
	}
	return chat.ColorPalette{}, false
}
