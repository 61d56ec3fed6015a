package specification

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const questionElements = "EXISTS (SELECT 1 FROM jsonb_array_elements(question_records.questions) AS q WHERE "

// QuestionPatternMatch keeps records where any question text matches one of
// the case-insensitive POSIX patterns
type QuestionPatternMatch struct {
	Patterns []string
}

func (s QuestionPatternMatch) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Patterns) == 0 {
		return db.Where("1 = 0")
	}
	conds := make([]string, len(s.Patterns))
	args := make([]interface{}, len(s.Patterns))
	for i, p := range s.Patterns {
		conds[i] = "q->>'text' ~* ?"
		args[i] = p
	}
	return db.Where(questionElements+strings.Join(conds, " OR ")+")", args...)
}

// QuestionContainsAll keeps records with a single question text containing every word
type QuestionContainsAll struct {
	Words []string
}

func (s QuestionContainsAll) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Words) == 0 {
		return db.Where("1 = 0")
	}
	conds := make([]string, len(s.Words))
	args := make([]interface{}, len(s.Words))
	for i, w := range s.Words {
		conds[i] = "q->>'text' ILIKE ?"
		args[i] = "%" + escapeLike(w) + "%"
	}
	return db.Where(questionElements+strings.Join(conds, " AND ")+")", args...)
}

// FullTextSearch ranks records against the GIN-indexed search_text document
type FullTextSearch struct {
	Query string
}

func (s FullTextSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Where("to_tsvector('english', search_text) @@ plainto_tsquery('english', ?)", s.Query).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(to_tsvector('english', search_text), plainto_tsquery('english', ?)) DESC",
			Vars:               []interface{}{s.Query},
			WithoutParentheses: true,
		}})
}

// ByCategory filters by exact category
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// Limit caps the number of rows
type Limit struct {
	N int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	if s.N <= 0 {
		return db
	}
	return db.Limit(s.N)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
