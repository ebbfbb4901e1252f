package source

import (
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/rurhook/internal/model"
)

// Allowlist says which fields a plugin may contribute and their type.
type Allowlist interface {
	Lookup(kind model.PluginKind, field string) (model.ValueKind, bool)
}

// Filter keeps only allowlisted fields and coerces them to their schema type.
// Fields not in the allowlist are dropped without complaint. A numeric field
// holding non-numeric text yields a *CoercionError.
func Filter(kind model.PluginKind, raw RawFields, allow Allowlist) (model.FieldMap, error) {
	// Sorted so a report with several bad fields always names the same one.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(model.FieldMap, len(names))
	for _, name := range names {
		vk, ok := allow.Lookup(kind, name)
		if !ok {
			continue
		}
		value := raw[name]
		if vk == model.StringValue {
			out[name] = model.Str(value)
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, &CoercionError{Plugin: kind, Field: name, Raw: value, Err: err}
		}
		out[name] = model.Int(n)
	}
	return out, nil
}
