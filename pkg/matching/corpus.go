package matching

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"sales-assistant-be/internal/entity"

	"gopkg.in/yaml.v3"
)

// ErrCorpusUnavailable wraps any store failure; the matcher skips the tier
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// Corpus is the read-only question store behind the matcher tiers
type Corpus interface {
	// MatchPatterns returns records with a question matching any
	// case-insensitive regular expression
	MatchPatterns(ctx context.Context, patterns []string, limit int) ([]*entity.QuestionRecord, error)
	// ContainsAll returns records with a single question containing every word
	ContainsAll(ctx context.Context, words []string, limit int) ([]*entity.QuestionRecord, error)
	// TextSearch runs the indexed free-text search, best ranked first
	TextSearch(ctx context.Context, query string, limit int) ([]*entity.QuestionRecord, error)
	// Scan returns the first limit records in stable order
	Scan(ctx context.Context, limit int) ([]*entity.QuestionRecord, error)
}

// MemoryCorpus serves the corpus from memory. It backs CORPUS_SOURCE=file
// and the tests.
type MemoryCorpus struct {
	mu      sync.RWMutex
	records []*entity.QuestionRecord
}

func NewMemoryCorpus(records []*entity.QuestionRecord) *MemoryCorpus {
	return &MemoryCorpus{records: records}
}

type corpusFile struct {
	Records []*entity.QuestionRecord `yaml:"records"`
}

// LoadCorpusFile reads a YAML corpus of the form `records: [{category, description, questions}]`
func LoadCorpusFile(path string) ([]*entity.QuestionRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	return ParseCorpus(raw)
}

// ParseCorpus decodes YAML corpus content
func ParseCorpus(raw []byte) ([]*entity.QuestionRecord, error) {
	var f corpusFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	for i, r := range f.Records {
		if r == nil || len(r.Questions) == 0 {
			return nil, fmt.Errorf("parse corpus: record %d has no questions", i)
		}
		for _, q := range r.Questions {
			if strings.TrimSpace(q.Text) == "" {
				return nil, fmt.Errorf("parse corpus: record %d has an empty question", i)
			}
		}
	}
	return f.Records, nil
}

// Replace swaps the whole corpus
func (c *MemoryCorpus) Replace(records []*entity.QuestionRecord) {
	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
}

func (c *MemoryCorpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *MemoryCorpus) MatchPatterns(ctx context.Context, patterns []string, limit int) ([]*entity.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrCorpusUnavailable, p, err)
		}
		compiled = append(compiled, re)
	}
	return c.filter(limit, func(text string) bool {
		for _, re := range compiled {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	}), nil
}

func (c *MemoryCorpus) ContainsAll(ctx context.Context, words []string, limit int) ([]*entity.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, nil
	}
	return c.filter(limit, func(text string) bool {
		lower := strings.ToLower(text)
		for _, w := range words {
			if !strings.Contains(lower, strings.ToLower(w)) {
				return false
			}
		}
		return true
	}), nil
}

// TextSearch ranks by the number of distinct query terms found in the
// record's questions, mirroring plainto_tsquery closely enough for tests
// and file-backed deployments.
func (c *MemoryCorpus) TextSearch(ctx context.Context, query string, limit int) ([]*entity.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= minTokenLength {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	type ranked struct {
		record *entity.QuestionRecord
		hits   int
		pos    int
	}

	c.mu.RLock()
	var hits []ranked
	for i, r := range c.records {
		doc := strings.ToLower(joinQuestions(r))
		n := 0
		for _, t := range terms {
			if strings.Contains(doc, t) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, ranked{record: r, hits: n, pos: i})
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].hits > hits[j].hits })
	out := make([]*entity.QuestionRecord, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, h.record)
	}
	return out, nil
}

func (c *MemoryCorpus) Scan(ctx context.Context, limit int) ([]*entity.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.filter(limit, func(string) bool { return true }), nil
}

func (c *MemoryCorpus) filter(limit int, keep func(text string) bool) []*entity.QuestionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*entity.QuestionRecord
	for _, r := range c.records {
		if limit > 0 && len(out) >= limit {
			break
		}
		for _, q := range r.Questions {
			if keep(q.Text) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func joinQuestions(r *entity.QuestionRecord) string {
	texts := make([]string, len(r.Questions))
	for i, q := range r.Questions {
		texts[i] = q.Text
	}
	return strings.Join(texts, " ")
}
