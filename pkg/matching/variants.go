package matching

import (
	"regexp"
	"strings"
	"unicode"
)

var leadingAsks = []string{"can you ", "do you ", "will you "}

var tenseForms = []string{"what happens", "what happened", "what will happen"}

// long form -> apostrophe-less split form as it appears once the corpus
// text is tokenized on punctuation ("what's" -> "what s")
var contractionForms = [][2]string{
	{"what is ", "what s "},
	{"how is ", "how s "},
	{"do not ", "don t "},
	{"does not ", "doesn t "},
	{"cannot ", "can t "},
	{"will not ", "won t "},
	{"i am ", "i m "},
	{"you are ", "you re "},
}

// Variants generates up to limit surface forms of a normalized query for
// the exact tier. The query itself is always first.
func Variants(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}

	out := []string{query}
	seen := map[string]struct{}{query: {}}
	add := func(v string) {
		v = collapseSpaces(v)
		if v == "" || len(out) >= limit {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	transforms := []func(string) []string{
		askForms,
		tenseVariants,
		hyphenForms,
		pluralForms,
		contractionVariants,
	}
	for _, tf := range transforms {
		for _, base := range append([]string(nil), out...) {
			for _, v := range tf(base) {
				add(v)
			}
		}
	}
	return out
}

func askForms(q string) []string {
	for _, lead := range leadingAsks {
		if strings.HasPrefix(q, lead) {
			rest := strings.TrimPrefix(q, lead)
			forms := make([]string, 0, len(leadingAsks)-1)
			for _, other := range leadingAsks {
				if other != lead {
					forms = append(forms, other+rest)
				}
			}
			return forms
		}
	}
	return nil
}

func tenseVariants(q string) []string {
	for _, form := range tenseForms {
		if strings.Contains(q, form) {
			var forms []string
			for _, other := range tenseForms {
				if other != form {
					forms = append(forms, strings.Replace(q, form, other, 1))
				}
			}
			return forms
		}
	}
	return nil
}

func hyphenForms(q string) []string {
	if !strings.Contains(q, "-") {
		return nil
	}
	return []string{
		strings.ReplaceAll(q, "-", " "),
		strings.ReplaceAll(q, "-", ""),
	}
}

func pluralForms(q string) []string {
	words := strings.Fields(q)
	if len(words) == 0 {
		return nil
	}
	last := words[len(words)-1]
	switch {
	case strings.HasSuffix(last, "ss"):
		return nil
	case strings.HasSuffix(last, "s") && len(last) > 3:
		words[len(words)-1] = strings.TrimSuffix(last, "s")
	case len(last) > 2:
		words[len(words)-1] = last + "s"
	default:
		return nil
	}
	return []string{strings.Join(words, " ")}
}

func contractionVariants(q string) []string {
	padded := q + " "
	var forms []string
	for _, c := range contractionForms {
		if strings.Contains(padded, c[0]) {
			forms = append(forms, strings.Replace(padded, c[0], c[1], 1))
		}
	}
	return forms
}

// AnchoredPattern turns a variant into a whole-string, case-insensitive
// pattern tolerant of punctuation between words. The syntax is shared by
// Postgres "~*" and Go regexp.
func AnchoredPattern(variant string) string {
	words := strings.FieldsFunc(strings.ToLower(variant), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return `^[^a-z0-9]*` + strings.Join(words, `[^a-z0-9]+`) + `[^a-z0-9]*$`
}

// AnyWordPattern builds the unanchored alternation used by the regex scan
// fallback of the indexed tier.
func AnyWordPattern(words []string) string {
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return `(` + strings.Join(quoted, `|`) + `)`
}
