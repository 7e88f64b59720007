package textwindow

import (
	"strings"
	"unicode"
)

// boundaryLookback is how far behind the limit Clip searches for whitespace
// before giving up and cutting mid-word.
const boundaryLookback = 200

// Clip returns a prefix of text at most maxRunes runes long. The cut is
// rune-safe and backs up to the nearest word boundary when one is close to
// the limit, so LLM prompts never end in a split word or a torn rune.
func Clip(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	cut := maxRunes
	floor := maxRunes - boundaryLookback
	if floor < 1 {
		floor = 1
	}
	for i := maxRunes - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}
