package matching

import (
	"strings"
	"unicode/utf8"
)

const (
	minLengthRatio   = 0.3
	substringOnly    = 0.3
	highJaccard      = 0.8
	highJaccardBonus = 0.1
	orderPositions   = 5
	orderStep        = 0.1
	substringBonus   = 0.2
	minTokenLength   = 3
)

// Scorer computes a bounded [0,1] similarity between two questions
type Scorer struct {
	tables Tables
}

// NewScorer creates a scorer over the given tables
func NewScorer(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// TablesVersion returns the version of the injected tables
func (s *Scorer) TablesVersion() string {
	return s.tables.Version
}

// Score is symmetric and deterministic; Score(x, x) == 1 for any x with
// at least one significant token.
func (s *Scorer) Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if float64(min(la, lb))/float64(max(la, lb)) < minLengthRatio {
		return 0
	}

	a = s.unify(a)
	b = s.unify(b)

	seqA := s.tokens(a)
	seqB := s.tokens(b)
	if len(seqA) == 0 || len(seqB) == 0 {
		return 0
	}

	setA := toSet(seqA)
	setB := toSet(seqB)

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}

	contains := strings.Contains(a, b) || strings.Contains(b, a)
	if inter == 0 {
		if contains {
			return substringOnly
		}
		return 0
	}

	union := len(setA) + len(setB) - inter
	jaccard := float64(inter) / float64(union)
	if jaccard > highJaccard {
		return min(1, jaccard+highJaccardBonus)
	}

	order := 0.0
	for i := 0; i < orderPositions && i < len(seqA) && i < len(seqB); i++ {
		if seqA[i] == seqB[i] {
			order += orderStep
		}
	}

	sub := 0.0
	if contains {
		sub = substringBonus
	}

	return min(1, jaccard+order+sub)
}

// SignificantWords returns the distinct non-stop words of a normalized
// query in appearance order, without unification (they are matched
// against raw corpus text).
func (s *Scorer) SignificantWords(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if !s.significant(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func (s *Scorer) unify(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if canon, ok := s.tables.Unifications[w]; ok {
			words[i] = canon
		}
	}
	return strings.Join(words, " ")
}

func (s *Scorer) tokens(text string) []string {
	var out []string
	for _, w := range strings.Fields(text) {
		if s.significant(w) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Scorer) significant(w string) bool {
	return utf8.RuneCountInString(w) >= minTokenLength && !s.tables.IsStopWord(w)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
