// Package pipeline runs RUR reports through classification, extraction,
// filtering and cross-line aggregation, and maps the result to resource names.
package pipeline

import (
	"github.com/theirongolddev/rurhook/internal/model"
)

// PolicyFor returns how a field of the given plugin and type combines across
// report lines. Only memory is reported once per compute node; the other
// plugins appear on a single line per report.
func PolicyFor(kind model.PluginKind, vk model.ValueKind) model.AggregationPolicy {
	if kind != model.Memory {
		return model.Single
	}
	if vk == model.IntValue {
		return model.Sum
	}
	return model.Join
}

// Aggregator holds one accumulator per plugin for the lifetime of one report.
// It is not safe for concurrent use.
type Aggregator struct {
	acc   [len(model.Plugins)]model.FieldMap
	lines [len(model.Plugins)]int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add merges the filtered fields of one line into the plugin's accumulator.
//
// Single-line plugins replace the accumulator wholesale, so a repeated line
// wins over the earlier one. Memory sums numeric fields and joins textual
// fields in arrival order; the first occurrence initializes the field.
func (a *Aggregator) Add(kind model.PluginKind, fields model.FieldMap) {
	a.lines[kind]++

	if kind != model.Memory {
		replaced := make(model.FieldMap, len(fields))
		for name, v := range fields {
			replaced[name] = v
		}
		a.acc[kind] = replaced
		return
	}

	acc := a.acc[kind]
	if acc == nil {
		acc = make(model.FieldMap, len(fields))
		a.acc[kind] = acc
	}
	for name, v := range fields {
		prev, seen := acc[name]
		if !seen {
			acc[name] = v
			continue
		}
		switch PolicyFor(kind, v.Kind) {
		case model.Sum:
			acc[name] = model.Int(prev.Int + v.Int)
		case model.Join:
			acc[name] = model.Str(prev.Str + model.JoinSeparator + v.Str)
		default:
			acc[name] = v
		}
	}
}

// Fields returns the accumulated fields of one plugin. The map is owned by
// the aggregator and must not be modified.
func (a *Aggregator) Fields(kind model.PluginKind) model.FieldMap {
	return a.acc[kind]
}

// Lines returns how many lines contributed to a plugin.
func (a *Aggregator) Lines(kind model.PluginKind) int {
	return a.lines[kind]
}
