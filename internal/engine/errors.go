package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal transfer error.
type Kind int

const (
	KindConfig   Kind = iota + 1 // rejected before any I/O
	KindOpen                     // input or output could not be opened
	KindPosition                 // skip or seek failed
	KindTransfer                 // read, write, sync or verify failed mid-transfer
	KindAlloc                    // aligned buffer could not be obtained
)

var kindNames = [...]string{
	KindConfig:   "config",
	KindOpen:     "open",
	KindPosition: "position",
	KindTransfer: "transfer",
	KindAlloc:    "alloc",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Error describes a fatal condition: what was being attempted, on which path,
// and the underlying OS error when there is one.
type Error struct {
	Kind Kind
	Op   string // e.g. "cannot open input file", "write failed"
	Path string // optional
	Err  error  // optional
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Message is the operation description without the underlying error.
func (e *Error) Message() string {
	if e.Path != "" {
		return fmt.Sprintf("%s '%s'", e.Op, e.Path)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func configError(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Op: fmt.Sprintf(format, args...)}
}
