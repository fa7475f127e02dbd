package canvasfmt

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const nbsp = "\u00a0"

// maxCleanPasses bounds the fixed-point iteration; each pass unwraps at
// most one level of entity encoding, and real descriptions never nest
// deeper than this.
const maxCleanPasses = 5

// CleanDescription reduces a Canvas HTML description to plain text:
// markup stripped, non-breaking spaces normalized, whitespace
// collapsed. The parser decodes entities, so a single pass over
// entity-encoded markup can surface literal tags; stripping repeats
// until the text stops changing, making the result a fixed point and
// the function safe to apply repeatedly.
func CleanDescription(raw string) string {
	text := raw
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanPass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func cleanPass(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	// Pad every tag open so text in adjacent elements does not run
	// together once the markup is gone; the final collapse removes the
	// extra spaces again.
	spaced := strings.ReplaceAll(raw, "<", " <")

	text := spaced
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced)); err == nil {
		text = doc.Text()
	} else {
		text = stripTags(spaced)
	}

	text = strings.ReplaceAll(text, nbsp, " ")
	return strings.Join(strings.Fields(text), " ")
}

// stripTags is the best-effort fallback when the HTML parser refuses
// the input: drop everything between angle brackets and keep the rest.
func stripTags(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inTag := false
	for _, r := range raw {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	return b.String()
}
