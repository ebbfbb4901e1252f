// Package source locates RUR report files and turns their lines into
// filtered, typed per-plugin field maps.
package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/theirongolddev/rurhook/internal/model"
)

var (
	// Shape B: the timestamp plugin carries a bare string.
	timestampLine = regexp.MustCompile(
		`uid: ([^,]*), apid: ([^,]*), jobid: ([^,]*), cmdname: (.*?),?\s+plugin: timestamp\s+(.*?)\s*$`)

	// Shape A: every other plugin wraps its body in {} or [].
	bracketLine = regexp.MustCompile(
		`uid: ([^,]*), apid: ([^,]*), jobid: ([^,]*), cmdname: (.*?),?\s+plugin: (\S+)\s+([\[{])(.*)([\]}])\s*$`)
)

const patPlugin = "plugin: "

// Classify matches one report line against the two record shapes.
//
// It returns ErrRecordFormat when the line matches neither shape, and an
// error wrapping ErrUnknownPlugin (with the record still filled in) when the
// line is well formed but names a plugin we don't handle.
func Classify(line string) (ParsedRecord, error) {
	// Cheap reject for blank lines, comments and syslog noise.
	if !strings.Contains(line, patPlugin) {
		return ParsedRecord{}, ErrRecordFormat
	}

	if m := timestampLine.FindStringSubmatch(line); m != nil {
		return ParsedRecord{
			UID:        m[1],
			APID:       m[2],
			JobID:      m[3],
			Cmdname:    m[4],
			PluginName: "timestamp",
			Plugin:     model.Timestamp,
			Body:       m[5],
		}, nil
	}

	m := bracketLine.FindStringSubmatch(line)
	if m == nil || !bracketsPair(m[6], m[8]) {
		return ParsedRecord{}, ErrRecordFormat
	}

	rec := ParsedRecord{
		UID:        m[1],
		APID:       m[2],
		JobID:      m[3],
		Cmdname:    m[4],
		PluginName: m[5],
		Body:       m[7],
	}

	kind, ok := model.ParsePluginKind(rec.PluginName)
	if !ok {
		return rec, fmt.Errorf("%w: %q", ErrUnknownPlugin, rec.PluginName)
	}
	rec.Plugin = kind
	return rec, nil
}

func bracketsPair(open, closing string) bool {
	return (open == "{" && closing == "}") || (open == "[" && closing == "]")
}
