// Package errors provides the error model shared by geopool packages.
// Errors carry the failing operation and a Kind so callers can tell a
// transport failure (abort the run) from a parse or validation failure.
package errors

import (
	stderrors "errors"
	"log/slog"
	"strings"
)

// Op represents an operation name for error context.
type Op string

// Error represents an application error with context.
type Error struct {
	Op   Op     // Operation that failed
	Kind Kind   // Category of error
	Err  error  // Underlying error
	Msg  string // Additional context message
}

// Kind represents the category of error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNetwork
	KindParse
	KindValidation
	KindConfig
	KindIO
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
		if e.Err != nil {
			b.WriteString(": ")
		}
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error with the given arguments.
// Arguments can be: Op, Kind, error, string (message).
func E(args ...interface{}) *Error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case error:
			e.Err = a
		case string:
			e.Msg = a
		}
	}
	return e
}

// Wrap wraps an error with an operation name for context.
// The kind of a wrapped *Error is preserved.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Err: err}
}

// WrapMsg wraps an error with an operation name and message.
func WrapMsg(op Op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Msg: msg, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// GetKind returns the kind of the outermost *Error in err's chain that has
// one, or KindUnknown.
func GetKind(err error) Kind {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return KindUnknown
		}
		if e.Kind != KindUnknown {
			return e.Kind
		}
		err = e.Err
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// New returns a plain sentinel error.
func New(text string) error {
	return stderrors.New(text)
}

// SkipCounter tracks how many items an operation dropped and why.
// Use this to provide visibility into records that are silently excluded.
type SkipCounter struct {
	Op         string
	Count      int
	LastDetail string
	reasons    map[string]int
}

// NewSkipCounter creates a new skip counter for the given operation.
func NewSkipCounter(op string) *SkipCounter {
	return &SkipCounter{Op: op, reasons: make(map[string]int)}
}

// SkipReason records a skipped item under a named reason.
func (s *SkipCounter) SkipReason(reason, detail string) {
	s.Count++
	s.LastDetail = detail
	s.reasons[reason]++
}

// Reasons returns a copy of the per-reason counts.
func (s *SkipCounter) Reasons() map[string]int {
	out := make(map[string]int, len(s.reasons))
	for k, v := range s.reasons {
		out[k] = v
	}
	return out
}

// Report logs a summary if any items were skipped.
func (s *SkipCounter) Report() {
	if s.Count == 0 {
		return
	}
	attrs := []any{"op", s.Op, "skipped", s.Count, "last_detail", s.LastDetail}
	for reason, n := range s.reasons {
		attrs = append(attrs, reason, n)
	}
	slog.Warn("items skipped", attrs...)
}

// IgnoreError explicitly ignores an error with a reason.
//
// Example:
//
//	errors.IgnoreError(file.Close(), "cleanup after failed write")
func IgnoreError(err error, reason string) {
	if err != nil {
		slog.Debug("ignoring error", "reason", reason, "err", err)
	}
}
