package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainGen "rapidsite/internal/domain/services/generation"
)

// Provider is a mock generation provider that emits lorem ipsum websites.
// Used for testing and development without requiring real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-test"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getDelay returns the simulated processing delay based on the model name.
func getDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 10 * time.Second
	}
	if strings.Contains(model, "fast") {
		return 50 * time.Millisecond
	}
	return 2 * time.Second
}

// Generate produces a fake generation response after a model-specific delay.
// The output follows the same named-file markdown format real models are
// prompted to use, so the extraction path is exercised end to end.
func (p *Provider) Generate(ctx context.Context, req *domainGen.Request) (*domainGen.Response, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	select {
	case <-time.After(getDelay(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	text := p.buildSite()

	inputTokens := len(strings.Fields(req.Prompt))
	outputTokens := len(strings.Fields(text))

	return &domainGen.Response{
		Text:         text,
		Model:        req.Model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		StopReason:   "end_turn",
	}, nil
}

// buildSite emits two placeholder pages in the named-file format.
func (p *Provider) buildSite() string {
	var sb strings.Builder
	for _, name := range []string{"index.html", "about.html"} {
		sb.WriteString("## ")
		sb.WriteString(name)
		sb.WriteString("\n```html\n")
		sb.WriteString(p.buildPage(name))
		sb.WriteString("\n```\n\n")
	}
	return sb.String()
}

func (p *Provider) buildPage(name string) string {
	title := strings.TrimSuffix(name, ".html")
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head><title>")
	sb.WriteString(title)
	sb.WriteString("</title></head>\n<body>\n<h1>")
	sb.WriteString(p.generator.Sentence(3, 6))
	sb.WriteString("</h1>\n")
	for i := 0; i < 3; i++ {
		sb.WriteString("<p>")
		sb.WriteString(p.generator.Paragraph(2, 4))
		sb.WriteString("</p>\n")
	}
	sb.WriteString("</body>\n</html>")
	return sb.String()
}
