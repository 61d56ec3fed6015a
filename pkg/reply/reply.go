package reply

import (
	"regexp"
	"strings"

	"sales-assistant-be/pkg/store"
)

// Labels of the three reply options, in order
var Labels = []string{"A", "B", "C"}

// LabeledOption is one persuasive reply option ("Response A: ...")
type LabeledOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

var markerRe = regexp.MustCompile(`(?i)response\s+([abc])\s*:`)

var spaceRe = regexp.MustCompile(`\s+`)

// MarkerIndex returns the byte offsets of every option marker in text
func MarkerIndex(text string) [][]int {
	return markerRe.FindAllStringSubmatchIndex(text, -1)
}

// Parse reads "Response A: ... Response B: ... Response C: ..." into
// options in appearance order. Text before the first marker is ignored;
// a repeated label keeps its first occurrence.
func Parse(text string) []LabeledOption {
	locs := MarkerIndex(text)
	options := make([]LabeledOption, 0, len(locs))
	seen := make(map[string]struct{}, len(locs))
	for i, loc := range locs {
		label := strings.ToUpper(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		options = append(options, LabeledOption{Label: label, Text: Clean(text[loc[1]:end])})
	}
	return options
}

// Clean collapses whitespace
func Clean(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Format renders options back into the canonical grammar, one per line
func Format(options []LabeledOption) string {
	lines := make([]string, 0, len(options))
	for _, o := range options {
		lines = append(lines, "Response "+o.Label+": "+o.Text)
	}
	return strings.Join(lines, "\n")
}

// First returns the text of the first option, or "" when there is none
func First(options []LabeledOption) string {
	if len(options) == 0 {
		return ""
	}
	return options[0].Text
}

// FromMatches composes a reply from corpus matches. Option X joins the
// answer X of every match in order; labels no match answers are dropped.
func FromMatches(matches []*store.MatchResult) []LabeledOption {
	var options []LabeledOption
	for _, label := range Labels {
		var parts []string
		for _, m := range matches {
			if m == nil {
				continue
			}
			if a := strings.TrimSpace(m.Answer(label)); a != "" {
				parts = append(parts, a)
			}
		}
		if len(parts) == 0 {
			continue
		}
		options = append(options, LabeledOption{Label: label, Text: Clean(strings.Join(parts, " "))})
	}
	return options
}

// QuotaFallback is served when the generative service refuses for quota reasons
func QuotaFallback() []LabeledOption {
	return []LabeledOption{
		{Label: "A", Text: "That's a great question. Let me get you the exact details right after this call so you have accurate numbers."},
		{Label: "B", Text: "I want to make sure I give you the right answer. Could you tell me a bit more about what matters most to you here?"},
		{Label: "C", Text: "Happy to help with that. Let me walk you through the options that fit your needs best and follow up in writing."},
	}
}

// FailureText is the terse reply for any non-quota generative failure
const FailureText = "Sorry, I couldn't generate a response right now. Please try again."
