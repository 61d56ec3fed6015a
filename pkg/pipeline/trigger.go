package pipeline

import (
	"regexp"
	"strings"
	"sync"

	"sales-assistant-be/pkg/reply"
)

var (
	firstMarkerRe = regexp.MustCompile(`(?i)response\s+a\s*:`)
	laterOptionRe = regexp.MustCompile(`(?i)\b(?:response|option)\s+[bc]\b`)
	sentenceEndRe = regexp.MustCompile(`[.!?](?:\s|$)`)
	jsonEscapes   = strings.NewReplacer(`\n`, " ", `\t`, " ", `\r`, " ", `\"`, `"`, `\\`, `\`)
)

// EarlySynthesisTrigger watches a streaming completion and hands the first
// reply option to fire as soon as it is long enough to speak.
//
// The buffer may be JSON ("responseText": "Response A: ...") or plain text,
// so the option ends at the next labeled marker or at a closing quote.
type EarlySynthesisTrigger struct {
	mu        sync.Mutex
	buf       strings.Builder
	markerEnd int // -1 until latched
	fired     bool
	minWords  int
	fire      func(text string)
}

func NewEarlySynthesisTrigger(minWords int, fire func(text string)) *EarlySynthesisTrigger {
	if minWords <= 0 {
		minWords = 25
	}
	return &EarlySynthesisTrigger{markerEnd: -1, minWords: minWords, fire: fire}
}

// Feed appends one increment and reports whether this call fired.
// fire runs on the caller's goroutine and must not block.
func (t *EarlySynthesisTrigger) Feed(delta string) bool {
	t.mu.Lock()
	t.buf.WriteString(delta)
	if t.fired {
		t.mu.Unlock()
		return false
	}

	text := t.buf.String()
	if t.markerEnd < 0 {
		loc := firstMarkerRe.FindStringIndex(text)
		if loc == nil {
			t.mu.Unlock()
			return false
		}
		t.markerEnd = loc[1]
	}

	tail := text[t.markerEnd:]
	if len(strings.Fields(tail)) < t.minWords {
		t.mu.Unlock()
		return false
	}

	extract, ok := extractOption(tail)
	if !ok {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	t.mu.Unlock()

	if t.fire != nil {
		t.fire(extract)
	}
	return true
}

// Text is everything buffered so far
func (t *EarlySynthesisTrigger) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

func (t *EarlySynthesisTrigger) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// extractOption cuts the first option out of the text following its marker.
// Without a closing boundary the extract is trimmed to its last full sentence.
func extractOption(tail string) (string, bool) {
	end := -1
	if locs := reply.MarkerIndex(tail); len(locs) > 0 {
		end = locs[0][0]
	}
	if q := closingQuote(tail); q >= 0 && (end < 0 || q < end) {
		end = q
	}

	var raw string
	if end >= 0 {
		raw = tail[:end]
	} else {
		locs := sentenceEndRe.FindAllStringIndex(tail, -1)
		if len(locs) == 0 {
			return "", false
		}
		raw = tail[:locs[len(locs)-1][0]+1]
	}

	extract := reply.Clean(jsonEscapes.Replace(raw))
	if extract == "" || laterOptionRe.MatchString(extract) {
		return "", false
	}
	return extract, true
}

// closingQuote finds the first double quote not escaped by a backslash
func closingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
