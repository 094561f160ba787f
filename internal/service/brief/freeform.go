package brief

import (
	"regexp"
	"strings"
)

// Freeform extraction is best-effort and never authoritative: a missed
// phrasing leaves the field for a later structured selection or a more
// direct sentence. Patterns are deliberately narrow; staying empty is
// better than capturing garbage.
var (
	purposePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:purpose|goal|point) of (?:the|my|this|our) (?:site|website) is (?:to )?(.+?)(?:[.!\n]|$)`),
		regexp.MustCompile(`(?i)(?:i|we) want (?:a|my|our) (?:site|website) (?:that|to|for) (.+?)(?:[.!\n]|$)`),
		regexp.MustCompile(`(?i)(?:i'm|i am|we're|we are) (?:building|making|creating) (?:a|an) (?:site|website) (?:that|to|for) (.+?)(?:[.!\n]|$)`),
	}

	audiencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:target audience|audience) (?:is|are|would be) (.+?)(?:[.!\n]|$)`),
		regexp.MustCompile(`(?i)(?:aimed at|targeting|it's for|it is for|meant for) (.+?)(?:[.!\n]|$)`),
	}

	designNotePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:design|style)[- ]wise[,:]? (.+?)(?:[.!\n]|$)`),
		regexp.MustCompile(`(?i)for the (?:design|look and feel)[,:]? (?:i|we)(?:'d| would)? (?:like|want|prefer) (.+?)(?:[.!\n]|$)`),
	}

	contentNotePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:content|copy)[- ]wise[,:]? (.+?)(?:[.!\n]|$)`),
		regexp.MustCompile(`(?i)(?:the (?:site|website|page) should (?:mention|say|include)) (.+?)(?:[.!\n]|$)`),
	}
)

// extractPurpose returns the first purpose phrase found in the text, or "".
func extractPurpose(text string) string {
	return firstMatch(purposePatterns, text)
}

// extractAudience returns the first audience phrase found in the text, or "".
func extractAudience(text string) string {
	return firstMatch(audiencePatterns, text)
}

// extractDesignNote returns a design remark found in the text, or "".
func extractDesignNote(text string) string {
	return firstMatch(designNotePatterns, text)
}

// extractContentNote returns a content remark found in the text, or "".
func extractContentNote(text string) string {
	return firstMatch(contentNotePatterns, text)
}

// appendNote joins accumulated note fragments with a separator. Unlike the
// scalar fields, notes grow across turns instead of keeping the first match.
func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
