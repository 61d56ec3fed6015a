package matching

// Tables holds the static word lists the scorer depends on.
// They are versioned so a tuning change can be traced in logs and calibration runs.
type Tables struct {
	Version      string
	StopWords    map[string]struct{}
	Unifications map[string]string // surface form -> canonical form
}

// TablesVersion identifies DefaultTables
const TablesVersion = "2024.2"

var defaultStopWords = []string{
	"the", "and", "for", "are", "you", "your", "yours", "what", "how", "why",
	"when", "where", "which", "who", "whom", "does", "did", "can", "could",
	"will", "would", "should", "shall", "may", "might", "must", "have", "has",
	"had", "was", "were", "been", "being", "with", "this", "that", "these",
	"those", "there", "their", "they", "them", "then", "than", "from", "into",
	"about", "any", "some", "our", "ours", "its", "also", "just", "tell",
	"please", "know", "kya", "hai", "aap", "kaise", "kyun", "kab", "kahan",
}

var defaultUnifications = map[string]string{
	"competitors":  "competitor",
	"competitor's": "competitor",
	"matching":     "match",
	"matches":      "match",
	"offers":       "offer",
	"offering":     "offer",
	"offerings":    "offer",
	"prices":       "price",
	"pricing":      "price",
	"plans":        "plan",
	"features":     "feature",
	"customers":    "customer",
	"integrations": "integration",
	"discounts":    "discount",
	"contracts":    "contract",
	"renewals":     "renewal",
	"renewing":     "renew",
}

// DefaultTables returns a fresh copy of the built-in tables
func DefaultTables() Tables {
	stop := make(map[string]struct{}, len(defaultStopWords))
	for _, w := range defaultStopWords {
		stop[w] = struct{}{}
	}
	unify := make(map[string]string, len(defaultUnifications))
	for k, v := range defaultUnifications {
		unify[k] = v
	}
	return Tables{
		Version:      TablesVersion,
		StopWords:    stop,
		Unifications: unify,
	}
}

// IsStopWord reports whether w is in the stop list
func (t Tables) IsStopWord(w string) bool {
	_, ok := t.StopWords[w]
	return ok
}
