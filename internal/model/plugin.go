// Package model defines domain types for RUR plugin metrics.
package model

// PluginKind identifies one of the RUR data plugins this tool understands.
type PluginKind int

// Known plugins, in output enumeration order.
const (
	Memory PluginKind = iota
	Taskstats
	Energy
	Timestamp
)

// Plugins lists every known plugin kind in output order.
var Plugins = [...]PluginKind{Memory, Taskstats, Energy, Timestamp}

// String returns the plugin name as it appears in a report line.
func (k PluginKind) String() string {
	switch k {
	case Memory:
		return "memory"
	case Taskstats:
		return "taskstats"
	case Energy:
		return "energy"
	case Timestamp:
		return "timestamp"
	}
	return "unknown"
}

// ParsePluginKind resolves a plugin name captured from a report line.
func ParsePluginKind(name string) (PluginKind, bool) {
	switch name {
	case "memory":
		return Memory, true
	case "taskstats":
		return Taskstats, true
	case "energy":
		return Energy, true
	case "timestamp":
		return Timestamp, true
	}
	return 0, false
}

// AggregationPolicy says how values of one field combine across report lines.
type AggregationPolicy int

const (
	// Single fields appear on at most one line; a later line overwrites.
	Single AggregationPolicy = iota
	// Sum fields are integers added across lines.
	Sum
	// Join fields are strings concatenated with JoinSeparator in line order.
	Join
)

// JoinSeparator separates joined textual values.
const JoinSeparator = ", "

func (p AggregationPolicy) String() string {
	switch p {
	case Sum:
		return "sum"
	case Join:
		return "join"
	}
	return "single"
}
