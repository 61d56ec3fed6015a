package matching

import (
	"regexp"
	"strings"
)

var (
	apostropheRe  = regexp.MustCompile(`['’‘` + "`" + `]`)
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	strayHyphenRe = regexp.MustCompile(`(^|\s)-+|-+(\s|$)`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order. Contractions arrive without apostrophes ("whats").
var canonicalRewrites = []rewrite{
	{regexp.MustCompile(`\bwhats\b`), "what is"},
	{regexp.MustCompile(`\bhows\b`), "how is"},
	{regexp.MustCompile(`\bwheres\b`), "where is"},
	{regexp.MustCompile(`\bwhos\b`), "who is"},
	{regexp.MustCompile(`\btheres\b`), "there is"},
	{regexp.MustCompile(`\bdont\b`), "do not"},
	{regexp.MustCompile(`\bdoesnt\b`), "does not"},
	{regexp.MustCompile(`\bdidnt\b`), "did not"},
	{regexp.MustCompile(`\bisnt\b`), "is not"},
	{regexp.MustCompile(`\barent\b`), "are not"},
	{regexp.MustCompile(`\bcant\b`), "cannot"},
	{regexp.MustCompile(`\bwont\b`), "will not"},
	{regexp.MustCompile(`\bim\b`), "i am"},
	{regexp.MustCompile(`\bive\b`), "i have"},
	{regexp.MustCompile(`\byoure\b`), "you are"},

	{regexp.MustCompile(`\bpre ?sales\b`), "pre-sales"},
	{regexp.MustCompile(`\bpost ?sales\b`), "post-sales"},
	{regexp.MustCompile(`\bwhat (happened|will happen|would happen)\b`), "what happens"},

	{regexp.MustCompile(`\bfollow ?up\b`), "follow-up"},
	{regexp.MustCompile(`\badd ?on(s?)\b`), "add-on$1"},
	{regexp.MustCompile(`\bsign ?up\b`), "sign-up"},
	{regexp.MustCompile(`\bcheck ?in\b`), "check-in"},
	{regexp.MustCompile(`\bup ?sell\b`), "up-sell"},
	{regexp.MustCompile(`\bcross ?sell\b`), "cross-sell"},
}

// Normalize canonicalizes a raw question into its comparable form.
// The result is lowercase, punctuation-free (in-word hyphens survive) and
// single-spaced. It never fails; "" maps to "".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = apostropheRe.ReplaceAllString(s, "")
	s = punctuationRe.ReplaceAllString(s, " ")
	s = strayHyphenRe.ReplaceAllString(s, " ")
	s = collapseSpaces(s)

	for _, rw := range canonicalRewrites {
		s = rw.re.ReplaceAllString(s, rw.repl)
	}

	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
