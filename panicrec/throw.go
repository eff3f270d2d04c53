package panicrec

import (
	"fmt"
	"os"
)

// osExit is a variable so tests can replace process termination with
// a panic they can recover from, since spec.md §7's fatal-error
// contract requires this package to exit the process directly rather
// than return an error a caller could ignore.
var osExit = os.Exit

// Throw reports a fatal runtime error per spec.md §7: corruption or an
// invariant violation that recoverable panic/recover cannot meaningfully
// handle (to-space overflow, OOM after collection, recursive-lock
// detection, panic-chain/defer overflow, evacuation-safety-cap trip,
// deadlock). It hands the report to FatalReporter, whose default logs
// it and exits the process; it never returns.
func Throw(msg string) {
	header := fmt.Sprintf("fatal error: %s", msg)
	FatalReporter(header, msg)
	// The default FatalReporter calls os.Exit and never returns. A test
	// FatalReporter that wants to keep the test binary alive must itself
	// panic with a value the test recovers, rather than returning —
	// otherwise callers that (correctly, per spec.md §7) assume Throw
	// never returns will keep running past a fatal condition.
}
