// Package speech rewrites LLM prose into something a TTS engine can read
// aloud without stumbling over emoji, markdown or list markers.
package speech

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Pictographic ranges that TTS engines try to read aloud.
	emojiRe = regexp.MustCompile(`[` +
		`\x{1F600}-\x{1F64F}` + // emoticons
		`\x{1F300}-\x{1F5FF}` + // symbols & pictographs
		`\x{1F680}-\x{1F6FF}` + // transport & map symbols
		`\x{1F900}-\x{1F9FF}` + // supplemental symbols
		`\x{1FA00}-\x{1FA6F}` + // chess symbols, extended-A
		`\x{1FA70}-\x{1FAFF}` + // symbols extended-A
		`\x{1F1E0}-\x{1F1FF}` + // flags
		`\x{2600}-\x{26FF}` + // misc symbols
		`\x{2700}-\x{27BF}` + // dingbats
		`\x{200D}` + // zero-width joiner
		`\x{FE0F}` + // variation selector-16
		`]+`)

	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	headerRe     = regexp.MustCompile(`(?m)^#+\s*`)
	listItemRe   = regexp.MustCompile(`^\s*(?:\d+\.|-)\s+`)
	multiSpaceRe = regexp.MustCompile(`  +`)
)

// Normalize strips emoji, markdown emphasis and headers, flattens list
// items into period-terminated sentences and collapses whitespace. Plain
// prose passes through unchanged apart from trimming.
func Normalize(text string) string {
	text = emojiRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = flattenLists(text)
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// flattenLists turns "1. item" and "- item" lines into sentences ending
// with a single period. Lines already ending in punctuation keep it.
func flattenLists(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		marker := listItemRe.FindString(line)
		if marker == "" {
			continue
		}
		item := strings.TrimRight(line[len(marker):], " \t")
		if item != "" && !endsWithPunct(item) {
			item += "."
		}
		lines[i] = item
	}
	return strings.Join(lines, "\n")
}

func endsWithPunct(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(".!?,;:…", r)
}
