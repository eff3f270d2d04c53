package rtlog

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func newTestLogger(debug bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(log.New(&buf, "", 0), debug)
	return l, &buf
}

func TestDebugfSilentByDefault(t *testing.T) {
	l, buf := newTestLogger(false)
	l.Debugf("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("Debugf with debug=false wrote %q, want nothing", buf.String())
	}
}

func TestDebugfPrintsWhenEnabled(t *testing.T) {
	l, buf := newTestLogger(true)
	l.Debugf("value=%d", 7)
	if !strings.Contains(buf.String(), "value=7") {
		t.Fatalf("Debugf output = %q, want it to contain \"value=7\"", buf.String())
	}
}

func TestFatalfExitsWithStatus2(t *testing.T) {
	l, buf := newTestLogger(false)
	var gotCode int
	called := false
	l.onFatal = func(code int) { called = true; gotCode = code }

	l.Fatalf("to-space overflow")

	if !called {
		t.Fatalf("Fatalf did not invoke the exit hook")
	}
	if gotCode != 2 {
		t.Fatalf("Fatalf exit code = %d, want 2", gotCode)
	}
	if !strings.Contains(buf.String(), "to-space overflow") {
		t.Fatalf("Fatalf output = %q, want it to mention the message", buf.String())
	}
}

func TestDefaultFallsBackToPackageLogger(t *testing.T) {
	if Default(nil) != defaultLogger {
		t.Fatalf("Default(nil) did not return the package default")
	}
	l, _ := newTestLogger(false)
	if Default(l) != l {
		t.Fatalf("Default(l) did not return l")
	}
}
