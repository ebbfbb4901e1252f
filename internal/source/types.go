package source

import "github.com/theirongolddev/rurhook/internal/model"

// ParsedRecord is one classified report line.
type ParsedRecord struct {
	JobID   string
	APID    string
	UID     string
	Cmdname string

	// PluginName is the name as written in the line. Plugin is only
	// meaningful when the name resolved to a known kind.
	PluginName string
	Plugin     model.PluginKind

	// Body is the metrics blob: the bracket interior for bracketed plugins,
	// the rest of the line for the timestamp plugin.
	Body string
}
