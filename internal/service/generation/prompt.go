package generation

import (
	"fmt"
	"strings"

	chatModels "rapidsite/internal/domain/models/chat"
)

// systemPrompt establishes the output contract the extractor depends on.
// The persuasive/design wording of the real prompt lives with the prompt
// owners; what matters here is that every file is emitted as a "## name"
// header followed by a ```html fence, with index.html always present.
const systemPrompt = `You are an expert website designer and developer. Generate a complete
static website from the project brief and conversation below.

Output format, strictly:
- each file starts with a line "## <filename>" followed by a fenced block
  opened with ` + "```html" + ` and closed with ` + "```" + `
- always include at least one file named "index.html"
- the website must be entirely client-side HTML, CSS and JavaScript`

// BuildPrompt assembles the user message for the generation call: the brief
// summary followed by the full conversation history.
func BuildPrompt(brief *chatModels.ProjectBrief, transcript []chatModels.Turn) string {
	var sb strings.Builder

	sb.WriteString("# Website Generation Request\n\n## Project Brief\n")
	writeBriefSummary(&sb, brief)

	sb.WriteString("\n## Chat Conversation History\n")
	for _, turn := range transcript {
		switch turn.Role {
		case chatModels.RoleUser:
			sb.WriteString("User: ")
		case chatModels.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			continue // system turns are operational noise, not requirements
		}
		sb.WriteString(turn.Content)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Based on the above conversation and project brief, generate the complete website.")
	return sb.String()
}

func writeBriefSummary(sb *strings.Builder, brief *chatModels.ProjectBrief) {
	fmt.Fprintf(sb, "site name: %s\n", brief.SiteName)
	fmt.Fprintf(sb, "purpose: %s\n", brief.Purpose)
	if brief.TargetAudience != "" {
		fmt.Fprintf(sb, "target audience: %s\n", brief.TargetAudience)
	}
	fmt.Fprintf(sb, "design style: %s\n", brief.DesignStyle)
	fmt.Fprintf(sb, "color palette: %s (%s)\n", brief.ColorPalette.Name, strings.Join(brief.ColorPalette.Colors, ", "))
	if brief.FontPairing.HeadingFont != "" {
		fmt.Fprintf(sb, "fonts: %s for headings, %s for body\n", brief.FontPairing.HeadingFont, brief.FontPairing.BodyFont)
	}
	if len(brief.Structure) > 0 {
		sb.WriteString("structure:\n")
		writeStructure(sb, brief.Structure, 1)
	}
	for key, snippet := range brief.ContentSnippets {
		fmt.Fprintf(sb, "content snippet %q: %s\n", key, snippet)
	}
	if brief.Notes.Design != "" {
		fmt.Fprintf(sb, "design notes: %s\n", brief.Notes.Design)
	}
	if brief.Notes.Content != "" {
		fmt.Fprintf(sb, "content notes: %s\n", brief.Notes.Content)
	}
}

func writeStructure(sb *strings.Builder, nodes []chatModels.SiteNode, depth int) {
	for _, node := range nodes {
		fmt.Fprintf(sb, "%s- %s (%s)\n", strings.Repeat("  ", depth), node.Name, node.Kind)
		writeStructure(sb, node.Children, depth+1)
	}
}
