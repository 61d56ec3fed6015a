package matching

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const module = "MATCHER"

// Thresholds are the acceptance cut-offs of each tier
type Thresholds struct {
	Trusted         float64 // minimum similarity for a cached result to be served
	Partial         float64
	Relaxed         float64 // used when RelaxedMinWords significant words match exactly
	RelaxedMinWords int
	Basic           float64 // used for records in BasicCategory
	BasicCategory   string
	EarlyExit       float64 // a candidate above this stops the tier
	Fuzzy           float64
	Fallback        float64 // minimum share of query words a fallback candidate must cover
}

type Config struct {
	Thresholds       Thresholds
	IndexedMinLength int // queries must be longer than this for the indexed tier
	MaxVariants      int
	CandidateLimit   int
	ScanLimit        int // records examined by the fuzzy and fallback tiers
}

func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			Trusted:         0.7,
			Partial:         0.6,
			Relaxed:         0.4,
			RelaxedMinWords: 3,
			Basic:           0.2,
			BasicCategory:   "Basic Questions",
			EarlyExit:       0.7,
			Fuzzy:           0.5,
			Fallback:        0.6,
		},
		IndexedMinLength: 20,
		MaxVariants:      12,
		CandidateLimit:   25,
		ScanLimit:        50,
	}
}

// Matcher resolves a question against the corpus through ordered tiers,
// returning the first acceptable hit.
type Matcher struct {
	corpus Corpus
	cache  Cache
	scorer *Scorer
	cfg    Config
	logger logger.ILogger
	tracer trace.Tracer
}

func NewMatcher(corpus Corpus, cache Cache, scorer *Scorer, cfg Config, log logger.ILogger) *Matcher {
	if cache == nil {
		cache = NoCache()
	}
	if scorer == nil {
		scorer = NewScorer(DefaultTables())
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Matcher{
		corpus: corpus,
		cache:  cache,
		scorer: scorer,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer("sales-assistant/matching"),
	}
}

// Scorer exposes the scorer used for candidate ranking
func (m *Matcher) Scorer() *Scorer {
	return m.scorer
}

// Match runs cache, casual filter, exact, partial and indexed tiers.
// A miss is (nil, nil); an error is returned only when ctx is done.
func (m *Matcher) Match(ctx context.Context, query string) (*store.MatchResult, error) {
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	ctx, span := m.tracer.Start(ctx, "matching.Match", trace.WithAttributes(attribute.String("query", q)))
	defer span.End()

	if entry, ok := m.cache.Get(ctx, q); ok {
		if entry.Result != nil && entry.Result.Similarity >= m.cfg.Thresholds.Trusted {
			hit := entry.Result.Clone()
			hit.Tier = store.TierCache
			span.SetAttributes(attribute.String("tier", hit.Tier))
			return hit, nil
		}
		m.cache.Invalidate(ctx, q)
	}

	if IsCasual(q) {
		m.logger.Debug(module, "Casual utterance skipped", map[string]interface{}{"query": q})
		return nil, nil
	}

	result, err := m.runTiers(ctx, q, m.exact, m.partial, m.indexed)
	if result != nil {
		span.SetAttributes(attribute.String("tier", result.Tier), attribute.Float64("similarity", result.Similarity))
	}
	return result, err
}

// ForceMatch skips the cache lookup and the casual filter, and adds the
// bounded fuzzy and fallback tiers after the regular ones.
func (m *Matcher) ForceMatch(ctx context.Context, query string) (*store.MatchResult, error) {
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	ctx, span := m.tracer.Start(ctx, "matching.ForceMatch", trace.WithAttributes(attribute.String("query", q)))
	defer span.End()

	return m.runTiers(ctx, q, m.exact, m.partial, m.indexed, m.fuzzy, m.fallback)
}

type tier func(ctx context.Context, q string) (*store.MatchResult, error)

func (m *Matcher) runTiers(ctx context.Context, q string, tiers ...tier) (*store.MatchResult, error) {
	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := t(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			m.logger.Warn(module, "Tier skipped", map[string]interface{}{"query": q, "error": err.Error()})
			continue
		}
		if result != nil {
			m.cache.Set(ctx, q, result)
			m.logger.Info(module, "Match found", map[string]interface{}{
				"query":      q,
				"tier":       result.Tier,
				"similarity": result.Similarity,
				"category":   result.Category,
			})
			return result.Clone(), nil
		}
	}
	return nil, nil
}

func (m *Matcher) exact(ctx context.Context, q string) (*store.MatchResult, error) {
	variants := Variants(q, m.cfg.MaxVariants)
	patterns := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		p := AnchoredPattern(v)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	records, err := m.corpus.MatchPatterns(ctx, patterns, m.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile("(?i)" + p); err == nil {
			compiled = append(compiled, re)
		}
	}
	for _, r := range records {
		for _, qe := range r.Questions {
			for _, re := range compiled {
				if re.MatchString(qe.Text) {
					return newResult(r, qe, 1.0, store.TierExact), nil
				}
			}
		}
	}
	return nil, nil
}

func (m *Matcher) partial(ctx context.Context, q string) (*store.MatchResult, error) {
	words := m.scorer.SignificantWords(q)
	if len(words) == 0 {
		return nil, nil
	}

	var candidates []*entity.QuestionRecord
	seen := make(map[*entity.QuestionRecord]struct{})
	var lastErr error
	for _, set := range presencePatterns(words) {
		records, err := m.corpus.ContainsAll(ctx, set, m.cfg.CandidateLimit)
		if err != nil {
			lastErr = err
			continue
		}
		for _, r := range records {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			candidates = append(candidates, r)
		}
		if best := m.best(q, words, candidates, store.TierPartial); best != nil && best.Similarity > m.cfg.Thresholds.EarlyExit {
			return best, nil
		}
	}
	if len(candidates) == 0 {
		return nil, lastErr
	}
	return m.best(q, words, candidates, store.TierPartial), nil
}

func (m *Matcher) indexed(ctx context.Context, q string) (*store.MatchResult, error) {
	if utf8.RuneCountInString(q) <= m.cfg.IndexedMinLength {
		return nil, nil
	}
	words := m.scorer.SignificantWords(q)

	records, err := m.corpus.TextSearch(ctx, q, m.cfg.CandidateLimit)
	if err != nil {
		m.logger.Warn(module, "Text search failed, falling back to regex scan", map[string]interface{}{"error": err.Error()})
		if len(words) == 0 {
			return nil, err
		}
		records, err = m.corpus.MatchPatterns(ctx, []string{AnyWordPattern(words)}, m.cfg.CandidateLimit)
		if err != nil {
			return nil, err
		}
	}
	return m.best(q, words, records, store.TierIndexed), nil
}

func (m *Matcher) fuzzy(ctx context.Context, q string) (*store.MatchResult, error) {
	records, err := m.corpus.Scan(ctx, m.cfg.ScanLimit)
	if err != nil {
		return nil, err
	}
	var best *store.MatchResult
	for _, r := range records {
		for _, qe := range r.Questions {
			s := m.scorer.Score(q, Normalize(qe.Text))
			if s >= m.cfg.Thresholds.Fuzzy && (best == nil || s > best.Similarity) {
				best = newResult(r, qe, s, store.TierFuzzy)
			}
		}
	}
	return best, nil
}

// fallback accepts the candidate covering the largest share of the query's
// significant words, provided the share reaches Thresholds.Fallback.
func (m *Matcher) fallback(ctx context.Context, q string) (*store.MatchResult, error) {
	words := m.scorer.SignificantWords(q)
	if len(words) == 0 {
		return nil, nil
	}
	records, err := m.corpus.Scan(ctx, m.cfg.ScanLimit)
	if err != nil {
		return nil, err
	}

	var best *store.MatchResult
	bestCoverage := 0.0
	for _, r := range records {
		for _, qe := range r.Questions {
			coverage := float64(countWordHits(words, Normalize(qe.Text))) / float64(len(words))
			if coverage < m.cfg.Thresholds.Fallback || coverage <= bestCoverage {
				continue
			}
			bestCoverage = coverage
			best = newResult(r, qe, m.scorer.Score(q, Normalize(qe.Text)), store.TierFallback)
		}
	}
	return best, nil
}

// best scores every question of every candidate and returns the highest one
// that scores strictly above its threshold
func (m *Matcher) best(q string, words []string, records []*entity.QuestionRecord, tierName string) *store.MatchResult {
	var best *store.MatchResult
	for _, r := range records {
		for _, qe := range r.Questions {
			text := Normalize(qe.Text)
			s := m.scorer.Score(q, text)
			if s <= m.threshold(r, words, text) {
				continue
			}
			if best == nil || s > best.Similarity {
				best = newResult(r, qe, s, tierName)
			}
		}
	}
	return best
}

func (m *Matcher) threshold(r *entity.QuestionRecord, words []string, candidate string) float64 {
	th := m.cfg.Thresholds
	if th.BasicCategory != "" && strings.EqualFold(r.Category, th.BasicCategory) {
		return th.Basic
	}
	if th.RelaxedMinWords > 0 && countWordHits(words, candidate) >= th.RelaxedMinWords {
		return th.Relaxed
	}
	return th.Partial
}

// presencePatterns yields the ordered word sets for the partial tier:
// up to four significant words, then the first two, then the longest one.
func presencePatterns(words []string) [][]string {
	var sets [][]string
	all := words
	if len(all) > 4 {
		all = all[:4]
	}
	sets = append(sets, all)
	if len(words) >= 3 {
		sets = append(sets, words[:2])
	}
	if len(words) >= 2 {
		longest := words[0]
		for _, w := range words[1:] {
			if len(w) > len(longest) {
				longest = w
			}
		}
		sets = append(sets, []string{longest})
	}
	return sets
}

func countWordHits(words []string, candidate string) int {
	present := make(map[string]struct{})
	for _, w := range strings.Fields(candidate) {
		present[w] = struct{}{}
	}
	n := 0
	for _, w := range words {
		if _, ok := present[w]; ok {
			n++
		}
	}
	return n
}

func newResult(r *entity.QuestionRecord, qe entity.QuestionEntry, similarity float64, tierName string) *store.MatchResult {
	return &store.MatchResult{
		MatchedQuestion: qe.Text,
		Answers:         append([]store.AnswerOption(nil), qe.Answers...),
		Category:        r.Category,
		Description:     r.Description,
		Similarity:      similarity,
		Tier:            tierName,
	}
}
