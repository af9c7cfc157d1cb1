package network

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RosterEntry is the routing view of one member agent.
type RosterEntry struct {
	Name        string
	Description string   // First non-empty line of the member's instructions
	Tools       []string // Bound tool names
	Index       int      // Registration order; lower wins ties
}

// SubTask is one unit of delegated work.
type SubTask struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Agent       string   `json:"agent"`
	DependsOn   []string `json:"dependsOn,omitempty"`
}

// RoutingStrategy decomposes a goal into sub-tasks, each annotated with the
// single best matching member.
type RoutingStrategy interface {
	Decompose(ctx context.Context, goal string, roster []RosterEntry) ([]SubTask, error)
}

// RouterFunc adapts a function to RoutingStrategy.
type RouterFunc func(ctx context.Context, goal string, roster []RosterEntry) ([]SubTask, error)

// Decompose implements RoutingStrategy.
func (f RouterFunc) Decompose(ctx context.Context, goal string, roster []RosterEntry) ([]SubTask, error) {
	return f(ctx, goal, roster)
}

// KeywordRouter is a deterministic strategy. The goal is split into
// sentences and each sentence becomes an independent sub-task routed to the
// member whose name, description and tool names share the most terms with
// it. Ties and unmatched sentences go to the earliest registered member
// that best matches the whole goal.
type KeywordRouter struct{}

// Decompose implements RoutingStrategy.
func (KeywordRouter) Decompose(_ context.Context, goal string, roster []RosterEntry) ([]SubTask, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("keyword router: empty roster")
	}

	fallback, _ := BestMatch(goal, roster)

	sentences := splitSentences(goal)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(goal)}
	}

	plan := make([]SubTask, 0, len(sentences))
	for i, s := range sentences {
		entry, score := BestMatch(s, roster)
		if score == 0 {
			entry = fallback
		}
		plan = append(plan, SubTask{
			ID:          fmt.Sprintf("task-%d", i+1),
			Description: s,
			Agent:       entry.Name,
		})
	}

	return plan, nil
}

// BestMatch returns the roster entry scoring highest against text and its
// score. Ties resolve to the lowest registration index; with no overlap at
// all the earliest registered member is returned with score zero.
func BestMatch(text string, roster []RosterEntry) (RosterEntry, int) {
	var (
		best      RosterEntry
		bestScore = -1
	)

	terms := tokenize(text)
	for _, e := range roster {
		score := Score(terms, e)
		if score > bestScore || (score == bestScore && e.Index < best.Index) {
			best, bestScore = e, score
		}
	}

	return best, max(bestScore, 0)
}

// Score counts the distinct terms that match a term of the entry's name,
// description or tools.
func Score(terms []string, e RosterEntry) int {
	vocab := tokenize(e.Name + " " + e.Description + " " + strings.Join(e.Tools, " "))

	score := 0
	for _, t := range terms {
		for _, v := range vocab {
			if termsMatch(t, v) {
				score++
				break
			}
		}
	}

	return score
}

// termsMatch treats terms sharing a five rune stem as equal, so "analyze"
// matches "analysis" and "searches" matches "search".
func termsMatch(a, b string) bool {
	if a == b {
		return true
	}
	const stem = 5
	if utf8.RuneCountInString(a) < stem || utf8.RuneCountInString(b) < stem {
		return false
	}
	ra, rb := []rune(a), []rune(b)
	return string(ra[:stem]) == string(rb[:stem])
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "about": {}, "from": {}, "into": {},
	"you": {}, "your": {}, "are": {}, "this": {}, "that": {}, "them": {}, "their": {},
	"please": {}, "what": {}, "which": {}, "who": {}, "how": {}, "can": {}, "all": {},
	"any": {}, "use": {}, "using": {}, "expert": {}, "agent": {}, "tool": {},
}

// tokenize lower-cases text and returns distinct terms of at least two runes
// that are not stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}

	return terms
}

// splitSentences splits on line breaks and sentence punctuation. A period
// only ends a sentence when followed by whitespace, so "Node.js" and "3.5"
// stay intact.
func splitSentences(text string) []string {
	var (
		out []string
		cur strings.Builder
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); len(tokenize(s)) > 0 {
			out = append(out, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		switch r {
		case '\n', '?', '!', ';', '。', '？', '！':
			flush()
			continue
		case '.':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}
	flush()

	return out
}
