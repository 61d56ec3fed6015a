package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minSplitLength      = 30
	minFragmentLength   = 10
	longFragmentLength  = 20
	minExtractedWithQ   = 15
	minExtractedNoQMark = 20
)

const questionWordAlternation = `what|how|why|when|where|which|who|can|could|do|does|is|are|will|would|kya|kaise|kyun|kab|kahan|kitna|kaun`

// separator finds boundaries; cut maps a match location to the end of the
// left fragment and the start of the right one.
type separator struct {
	re  *regexp.Regexp
	cut func(loc []int) (leftEnd, rightStart int)
}

var separators = []separator{
	{
		// "...renew? How much..." -> keep the punctuation on the left
		re: regexp.MustCompile(`[?.!]\s+[A-Z]`),
		cut: func(loc []int) (int, int) {
			return loc[0] + 1, loc[1] - 1
		},
	},
	{
		// "..., and how much..." / "... aur Kya..."
		re: regexp.MustCompile(`(?:,\s*|\s+)(?:[Aa]nd|[Aa]ur)\s+([A-Z]|(?i:` + questionWordAlternation + `)\b)`),
		cut: func(loc []int) (int, int) {
			return loc[0], loc[2]
		},
	},
	{
		re: regexp.MustCompile(`;\s*`),
		cut: func(loc []int) (int, int) {
			return loc[0], loc[1]
		},
	},
}

var (
	questionWordRe = regexp.MustCompile(`(?i)\b(what|how|why|when|where|which|who|kya|kaise|kyun|kab|kahan|kitna|kaun)\b`)
	questionSpanRe = regexp.MustCompile(`(?i)\b(?:what|how|why|when|where|which|who|kya|kaise|kyun|kab|kahan|kitna|kaun)\b[^?.!;]*[?.!]?`)
)

// Split decomposes one utterance into candidate questions in appearance
// order. The result always has at least one element.
func Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minSplitLength {
		return []string{trimmed}
	}

	for _, sep := range separators {
		fragments := splitOn(trimmed, sep)
		if len(fragments) >= 2 && allQuestions(fragments) {
			return fragments
		}
	}

	if len(questionWordRe.FindAllStringIndex(trimmed, -1)) > 1 {
		var extracted []string
		for _, span := range questionSpanRe.FindAllString(trimmed, -1) {
			span = strings.TrimSpace(span)
			n := utf8.RuneCountInString(span)
			if (n >= minExtractedWithQ && strings.HasSuffix(span, "?")) || n >= minExtractedNoQMark {
				extracted = append(extracted, span)
			}
		}
		if len(extracted) >= 2 {
			return extracted
		}
	}

	return []string{trimmed}
}

func splitOn(text string, sep separator) []string {
	var fragments []string
	start := 0
	for _, loc := range sep.re.FindAllStringSubmatchIndex(text, -1) {
		leftEnd, rightStart := sep.cut(loc)
		if leftEnd < start {
			continue
		}
		if f := strings.TrimSpace(text[start:leftEnd]); f != "" {
			fragments = append(fragments, f)
		}
		start = rightStart
	}
	if f := strings.TrimSpace(text[start:]); f != "" {
		fragments = append(fragments, f)
	}
	return fragments
}

func allQuestions(fragments []string) bool {
	for _, f := range fragments {
		n := utf8.RuneCountInString(f)
		if !((n > minFragmentLength && strings.Contains(f, "?")) || n > longFragmentLength) {
			return false
		}
	}
	return true
}
