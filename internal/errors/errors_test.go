package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorCreation(t *testing.T) {
	err := E(Op("resolve.eutils"), KindNetwork, "esearch failed")

	if err.Op != "resolve.eutils" {
		t.Errorf("expected Op 'resolve.eutils', got %q", err.Op)
	}
	if err.Kind != KindNetwork {
		t.Errorf("expected Kind KindNetwork, got %v", err.Kind)
	}
	if err.Msg != "esearch failed" {
		t.Errorf("expected Msg 'esearch failed', got %q", err.Msg)
	}
}

func TestErrorWithWrappedError(t *testing.T) {
	underlying := fmt.Errorf("connection refused")
	err := E(Op("source.ena"), KindNetwork, underlying, "failed to fetch study list")

	if err.Err != underlying {
		t.Error("expected underlying error to be set")
	}

	errStr := err.Error()
	for _, want := range []string{"source.ena", "failed to fetch study list", "connection refused"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error string should contain %q, got %q", want, errStr)
		}
	}
}

func TestErrorStringFormats(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"op only", &Error{Op: "test"}, "test: "},
		{"msg only", &Error{Msg: "failed"}, "failed"},
		{"err only", &Error{Err: fmt.Errorf("root")}, "root"},
		{"op and msg", &Error{Op: "test", Msg: "failed"}, "test: failed"},
		{"all fields", &Error{Op: "test", Msg: "failed", Err: fmt.Errorf("root")}, "test: failed: root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnknown, "unknown"},
		{KindNetwork, "network"},
		{KindParse, "parse"},
		{KindValidation, "validation"},
		{KindConfig, "config"},
		{KindIO, "io"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWrapPreservesKind(t *testing.T) {
	if Wrap("test", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	inner := E(Op("parser.projects"), KindParse, "unexpected root element")
	wrapped := Wrap("source.ena", inner)

	if !IsKind(wrapped, KindParse) {
		t.Errorf("expected wrapped error to keep KindParse, got %v", GetKind(wrapped))
	}
	if !strings.HasPrefix(wrapped.Error(), "source.ena: parser.projects") {
		t.Errorf("unexpected error string %q", wrapped.Error())
	}
}

func TestWrapMsg(t *testing.T) {
	if WrapMsg("test", "msg", nil) != nil {
		t.Error("WrapMsg(nil) should return nil")
	}

	wrapped := WrapMsg("export.tsv", "rename failed", fmt.Errorf("permission denied"))
	if !strings.Contains(wrapped.Error(), "rename failed: permission denied") {
		t.Errorf("error should contain message, got %q", wrapped.Error())
	}
}

func TestIsKindThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", E(KindNetwork, "eutils unreachable"))
	if !IsKind(err, KindNetwork) {
		t.Error("expected IsKind to see through fmt.Errorf wrapping")
	}
	if IsKind(err, KindParse) {
		t.Error("expected IsKind to return false for non-matching kind")
	}
	if GetKind(fmt.Errorf("standard error")) != KindUnknown {
		t.Error("expected KindUnknown for non-Error type")
	}
}

func TestSkipCounter(t *testing.T) {
	sc := NewSkipCounter("mapping.filter")

	sc.SkipReason("conflict", "GSE1")
	sc.SkipReason("duplicate", "GSE2")
	sc.SkipReason("duplicate", "GSE3")
	sc.SkipReason("empty_id", "GSE4")

	if sc.Count != 4 {
		t.Errorf("expected count 4, got %d", sc.Count)
	}
	if sc.LastDetail != "GSE4" {
		t.Errorf("LastDetail should be 'GSE4', got %q", sc.LastDetail)
	}

	reasons := sc.Reasons()
	if reasons["duplicate"] != 2 || reasons["empty_id"] != 1 || reasons["conflict"] != 1 {
		t.Errorf("unexpected reasons %v", reasons)
	}

	// Reasons returns a copy.
	reasons["duplicate"] = 100
	if sc.Reasons()["duplicate"] != 2 {
		t.Error("Reasons should not expose internal state")
	}
}

func TestSkipCounterReport(t *testing.T) {
	sc := NewSkipCounter("test")

	// Report with no skips should not panic
	sc.Report()

	sc.SkipReason("multi_valued", "GSE1,GSE2")
	sc.Report()
}

func TestIgnoreError(t *testing.T) {
	IgnoreError(nil, "test")
	IgnoreError(fmt.Errorf("test"), "test reason")
}
