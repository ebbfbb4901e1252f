package model

import (
	"sort"
	"strconv"
)

// ValueKind tags a MetricValue.
type ValueKind int

const (
	IntValue ValueKind = iota
	StringValue
)

// MetricValue is either an integer or a string. Which one a field carries is
// fixed by the plugin schema, never by the field's content.
type MetricValue struct {
	Kind ValueKind
	Int  int64
	Str  string
}

// Int returns an integer MetricValue.
func Int(n int64) MetricValue {
	return MetricValue{Kind: IntValue, Int: n}
}

// Str returns a textual MetricValue.
func Str(s string) MetricValue {
	return MetricValue{Kind: StringValue, Str: s}
}

// Text renders the value the way the accounting record stores it.
func (v MetricValue) Text() string {
	if v.Kind == IntValue {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Str
}

// FieldMap maps field names to values for one plugin.
type FieldMap map[string]MetricValue

// ResultMapping maps prefixed resource names to their stringified values.
type ResultMapping map[string]string

// Names returns the resource names in sorted order.
func (m ResultMapping) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
