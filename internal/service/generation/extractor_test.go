package generation

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractStrictMarkers(t *testing.T) {
	raw := "Here is your website.\n\n" +
		"## index.html\n```html\n<!DOCTYPE html><html><body>Home</body></html>\n```\n\n" +
		"## about.html\n```html\n<!DOCTYPE html><html><body>About</body></html>\n```\n"

	artifacts := newTestExtractor().Extract(raw)

	if len(artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(artifacts))
	}
	if artifacts[0].Name != "index.html" || artifacts[1].Name != "about.html" {
		t.Errorf("names = %q, %q; want document order preserved", artifacts[0].Name, artifacts[1].Name)
	}
	if !strings.Contains(artifacts[0].Content, "Home") {
		t.Errorf("index content = %q", artifacts[0].Content)
	}
	if strings.HasPrefix(artifacts[0].Content, "\n") || strings.HasSuffix(artifacts[0].Content, "\n") {
		t.Errorf("content not trimmed: %q", artifacts[0].Content)
	}
}

func TestExtractDuplicateNameKeepsFirstPosition(t *testing.T) {
	raw := "## index.html\n```html\nfirst\n```\n" +
		"## about.html\n```html\nabout\n```\n" +
		"## index.html\n```html\nsecond\n```\n"

	artifacts := newTestExtractor().Extract(raw)

	if len(artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(artifacts))
	}
	if artifacts[0].Name != "index.html" || artifacts[0].Content != "second" {
		t.Errorf("artifacts[0] = %+v, want index.html with the later content", artifacts[0])
	}
}

func TestExtractLooseFallback(t *testing.T) {
	// No language tag and extra whitespace after the heading.
	raw := "##   index.html\n\n```\n<!DOCTYPE html><html><body>Hi</body></html>\n```\n"

	artifacts := newTestExtractor().Extract(raw)

	if len(artifacts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(artifacts))
	}
	if artifacts[0].Name != "index.html" {
		t.Errorf("name = %q, want index.html", artifacts[0].Name)
	}
}

func TestExtractFragmentSalvage(t *testing.T) {
	raw := "Sure, here are your pages:\n" +
		"<!DOCTYPE html><html><body>One</body></html>\n" +
		"and a second one:\n" +
		"<!doctype html><html><body>Two</body></html>\n"

	artifacts := newTestExtractor().Extract(raw)

	if len(artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(artifacts))
	}
	if artifacts[0].Name != "index.html" {
		t.Errorf("first fragment name = %q, want index.html", artifacts[0].Name)
	}
	if artifacts[1].Name != "page-1.html" {
		t.Errorf("second fragment name = %q, want page-1.html", artifacts[1].Name)
	}
}

func TestExtractNothingRecoverable(t *testing.T) {
	artifacts := newTestExtractor().Extract("I'm sorry, I can't help with that.")
	if len(artifacts) != 0 {
		t.Errorf("got %d artifacts, want 0", len(artifacts))
	}
}

func TestToMap(t *testing.T) {
	m := ToMap([]Artifact{
		{Name: "index.html", Content: "a"},
		{Name: "about.html", Content: "b"},
	})
	if len(m) != 2 || m["index.html"] != "a" || m["about.html"] != "b" {
		t.Errorf("ToMap = %v", m)
	}

	if ToMap(nil) != nil {
		t.Error("ToMap(nil) should be nil")
	}
}
