// Package account hands finished resource mappings to the job's accounting
// record.
package account

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/theirongolddev/rurhook/internal/model"
)

// ResourcePrefix is prepended to every name in the scheduler's resource list.
const ResourcePrefix = "resources_used."

// Recorder attaches a job's resource mapping to its accounting record.
type Recorder interface {
	Record(ctx context.Context, jobID string, m model.ResultMapping) error
}

// TextRecorder writes one "resources_used.<name>=<value>" line per resource,
// sorted by name, which is what the scheduler reads back from a hook.
type TextRecorder struct {
	w io.Writer
}

// NewTextRecorder returns a recorder writing to w.
func NewTextRecorder(w io.Writer) *TextRecorder {
	return &TextRecorder{w: w}
}

// Record implements Recorder.
func (t *TextRecorder) Record(_ context.Context, _ string, m model.ResultMapping) error {
	bw := bufio.NewWriter(t.w)
	for _, name := range m.Names() {
		if _, err := fmt.Fprintf(bw, "%s%s=%s\n", ResourcePrefix, name, m[name]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type multiRecorder []Recorder

// Multi returns a recorder that records to every r in turn. All recorders
// run even if one fails; the errors are combined.
func Multi(recorders ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (mr multiRecorder) Record(ctx context.Context, jobID string, m model.ResultMapping) error {
	var err error
	for _, r := range mr {
		err = multierr.Append(err, r.Record(ctx, jobID, m))
	}
	return err
}
