package generation

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Artifact is one named output file recovered from a generation response.
type Artifact struct {
	Name    string
	Content string
}

// The model is instructed to emit each file as a "## filename" heading
// followed by a language-tagged fenced block. Real responses drift from that
// contract, so extraction degrades through three strategies:
//
//  1. the strict marker pattern,
//  2. a looser pattern tolerating extra whitespace and a missing language tag,
//  3. bare complete HTML documents, assigned synthetic sequential names.
var (
	strictPattern   = regexp.MustCompile("(?s)## ([a-zA-Z0-9_\\-.]+)\\s*```html(.*?)```")
	loosePattern    = regexp.MustCompile("(?s)##\\s+([a-zA-Z0-9_\\-.]+)[\\s\n]*```(?:html)?(.*?)```")
	fragmentPattern = regexp.MustCompile(`(?is)<!DOCTYPE html.*?</html>`)
)

// Extractor recovers named artifacts from the loosely-structured text the
// external model returns.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new response extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses the raw response into artifacts in document order. A later
// file with the same name overwrites an earlier one. An empty result means
// nothing was recoverable; the job manager treats that as failure.
func (e *Extractor) Extract(raw string) []Artifact {
	artifacts := e.collect(strictPattern, raw)
	if len(artifacts) > 0 {
		return artifacts
	}

	e.logger.Debug("no strict markers found, trying loose pattern")
	artifacts = e.collect(loosePattern, raw)
	if len(artifacts) > 0 {
		return artifacts
	}

	e.logger.Debug("no markers found, scanning for bare HTML fragments")
	return e.collectFragments(raw)
}

func (e *Extractor) collect(pattern *regexp.Regexp, raw string) []Artifact {
	var artifacts []Artifact
	index := make(map[string]int)

	for _, match := range pattern.FindAllStringSubmatch(raw, -1) {
		name := strings.TrimSpace(match[1])
		content := strings.TrimSpace(match[2])
		if i, seen := index[name]; seen {
			artifacts[i].Content = content
			continue
		}
		index[name] = len(artifacts)
		artifacts = append(artifacts, Artifact{Name: name, Content: content})
	}

	if len(artifacts) > 0 {
		e.logger.Debug("extracted artifacts", "count", len(artifacts))
	}
	return artifacts
}

// collectFragments is the last resort: whole HTML documents without any
// file markers. The first fragment becomes the canonical entry artifact.
func (e *Extractor) collectFragments(raw string) []Artifact {
	fragments := fragmentPattern.FindAllString(raw, -1)
	if len(fragments) == 0 {
		return nil
	}

	e.logger.Debug("salvaging bare HTML fragments", "count", len(fragments))
	artifacts := make([]Artifact, 0, len(fragments))
	for i, fragment := range fragments {
		name := "index.html"
		if i > 0 {
			name = fmt.Sprintf("page-%d.html", i)
		}
		artifacts = append(artifacts, Artifact{Name: name, Content: strings.TrimSpace(fragment)})
	}
	return artifacts
}

// ToMap converts artifacts to the filename→content mapping jobs expose.
func ToMap(artifacts []Artifact) map[string]string {
	if len(artifacts) == 0 {
		return nil
	}
	out := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		out[a.Name] = a.Content
	}
	return out
}
