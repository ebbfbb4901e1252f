package source

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/rurhook/internal/model"
)

var (
	// ErrRecordFormat marks a line that matches neither record shape.
	ErrRecordFormat = errors.New("line does not match a RUR record shape")

	// ErrUnknownPlugin marks a well-formed line naming a plugin we don't handle.
	ErrUnknownPlugin = errors.New("unknown RUR plugin")

	// ErrSourceUnavailable is matched by every UnavailableError.
	ErrSourceUnavailable = errors.New("RUR report unavailable")
)

// CoercionError reports a numeric field holding non-numeric text. It means
// the report format changed underneath us, so it aborts the whole report.
type CoercionError struct {
	Plugin model.PluginKind
	Field  string
	Raw    string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s field %q: cannot coerce %q to integer: %v", e.Plugin, e.Field, e.Raw, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// NestedStructureError reports a memory sub-structure whose closing
// delimiter could not be found. Only that line's memory data is lost.
type NestedStructureError struct {
	Block string
	Line  int
}

func (e *NestedStructureError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: memory %s block is not terminated", e.Line, e.Block)
	}
	return fmt.Sprintf("memory %s block is not terminated", e.Block)
}

// UnavailableError reports that the report file could not be opened within
// the retry budget.
type UnavailableError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("report %s unavailable after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSourceUnavailable) match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
