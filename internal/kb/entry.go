// File path: internal/kb/entry.go
package kb

import (
	"sort"
	"strings"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

// Entry is one indexed activity description.
type Entry struct {
	ActivityID    string          `json:"activity_id"`
	SourceProcess string          `json:"source_process"`
	Kind          ir.ActivityKind `json:"kind"`
	Name          string          `json:"name"`
	Text          string          `json:"text"`
	Embedding     []float32       `json:"-"`
	Fingerprint   string          `json:"fingerprint,omitempty"`
}

// HasVector reports whether the entry carries an embedding.
func (e Entry) HasVector() bool {
	return len(e.Embedding) > 0
}

// Match is a query hit.
type Match struct {
	Entry
	Score float64 `json:"score"`
}

// TextFor renders the text representation that is embedded or tokenized
// for an activity.
func TextFor(activity ir.Activity) string {
	parts := []string{
		"Activity type: " + string(activity.Kind),
		"Activity name: " + activity.Name,
	}
	if activity.Input != nil {
		parts = append(parts, "Input: "+activity.Input.Name)
	}
	if activity.Output != nil {
		parts = append(parts, "Output: "+activity.Output.Name)
	}
	keys := make([]string, 0, len(activity.Attributes))
	for key := range activity.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := strings.TrimSpace(activity.Attributes[key])
		if value == "" {
			continue
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, " | ")
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	replacer := strings.NewReplacer(
		".", " ",
		",", " ",
		"\n", " ",
		"\t", " ",
		":", " ",
		";", " ",
		"-", " ",
		"_", " ",
		"(", " ",
		")", " ",
		"'", " ",
		"\"", " ",
		"|", " ",
		"/", " ",
		"=", " ",
		"?", " ",
	)
	return strings.Fields(replacer.Replace(text))
}

func tokenSet(text string) map[string]struct{} {
	tokens := tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
