package ui

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/fatih/color"

	"github.com/bamsammich/pdd/internal/engine"
	"github.com/bamsammich/pdd/internal/stats"
)

const (
	megabyte = 1024 * 1024
	// minElapsed keeps the summary rate finite for instantaneous copies.
	minElapsed = 1e-6
)

// Summary renders the dd-style three-line completion summary.
func Summary(s stats.Snapshot) string {
	secs := s.Elapsed.Seconds()
	mb := float64(s.Bytes) / megabyte
	return fmt.Sprintf("%d+0 records in\n%d+0 records out\n%.2f MB copied, %.2f seconds, %.2f MB/s\n",
		s.Blocks, s.Blocks, mb, secs, mb/max(secs, minElapsed))
}

// Diagnostic renders a fatal error as a single line:
//
//	error: <message>[: <system error text> (errno=<n>)]
func Diagnostic(err error) string {
	return "error: " + diagnosticBody(err)
}

func diagnosticBody(err error) string {
	var errno syscall.Errno
	hasErrno := errors.As(err, &errno) && errno != 0

	var e *engine.Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	msg := e.Message()
	switch {
	case hasErrno:
		msg += fmt.Sprintf(": %s (errno=%d)", errno.Error(), int(errno))
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Reporter writes warnings, diagnostics and the summary to the error
// stream, coloring the prefixes when the stream is a terminal.
type Reporter struct {
	w    io.Writer
	errC *color.Color
	wrnC *color.Color
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer, colorize bool) *Reporter {
	r := &Reporter{
		w:    w,
		errC: color.New(color.FgRed, color.Bold),
		wrnC: color.New(color.FgYellow),
	}
	if colorize {
		r.errC.EnableColor()
		r.wrnC.EnableColor()
	} else {
		r.errC.DisableColor()
		r.wrnC.DisableColor()
	}
	return r
}

// Warn reports a non-fatal problem.
func (r *Reporter) Warn(msg string) {
	fmt.Fprintf(r.w, "%s %s\n", r.wrnC.Sprint("warning:"), msg)
}

// Error reports a fatal error.
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.w, "%s %s\n", r.errC.Sprint("error:"), diagnosticBody(err))
}

// Summary reports the final statistics.
func (r *Reporter) Summary(s stats.Snapshot) {
	fmt.Fprint(r.w, Summary(s))
}
