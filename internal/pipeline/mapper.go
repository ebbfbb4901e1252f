package pipeline

import (
	"github.com/theirongolddev/rurhook/internal/model"
)

// Prefixer supplies the resource-name prefix for each plugin.
type Prefixer interface {
	Prefix(kind model.PluginKind) string
}

// MapResult flattens the per-plugin accumulators into resource names of the
// form <prefix><field>, with every value in its string form.
func MapResult(agg *Aggregator, prefixes Prefixer) model.ResultMapping {
	out := make(model.ResultMapping)
	for _, kind := range model.Plugins {
		prefix := prefixes.Prefix(kind)
		for name, v := range agg.Fields(kind) {
			out[prefix+name] = v.Text()
		}
	}
	return out
}
