package source

import (
	"strings"

	"github.com/theirongolddev/rurhook/internal/model"
)

// TimestampField is the single field produced by the timestamp plugin.
const TimestampField = "rur_timestamp"

// Taskstats keys that are never kept: the first has a colon in its name,
// which downstream resource names can't hold, the second is unused.
var taskstatsDropped = [...]string{"exitcode:signal", "core"}

// RawFields maps field names to their unparsed values for one report line.
type RawFields map[string]string

// Extract turns a classified record's body into raw fields.
func Extract(rec ParsedRecord) (RawFields, error) {
	switch rec.Plugin {
	case model.Timestamp:
		return RawFields{TimestampField: rec.Body}, nil

	case model.Taskstats:
		fields := splitPairs(stripQuotes(rec.Body))
		for _, k := range taskstatsDropped {
			delete(fields, k)
		}
		return fields, nil

	case model.Energy:
		return splitPairs(stripQuotes(rec.Body)), nil

	case model.Memory:
		return extractMemory(rec.Body)
	}
	return RawFields{}, nil
}

func stripQuotes(s string) string {
	if strings.IndexAny(s, `"'`) < 0 {
		return s
	}
	return strings.NewReplacer(`"`, "", `'`, "").Replace(s)
}

// splitPairs reads a flat "k: v, k: v" (or "k, v, k, v") run. Tokens pair up
// by position; a trailing unmatched token is dropped.
func splitPairs(body string) RawFields {
	tokens := strings.Split(strings.ReplaceAll(body, ": ", ", "), ", ")
	fields := make(RawFields, len(tokens)/2)
	for i := 0; i+1 < len(tokens); i += 2 {
		key := strings.TrimSpace(tokens[i])
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(tokens[i+1])
	}
	return fields
}
