// Package errors provides structured, actionable errors for the tracking engine.
//
// Every violation the engine detects is reported as an *Error carrying a
// registered code, a category, a short message and a longer explanation.
// Errors also record which tag and which frame depth were involved so that
// a failing render pass can be debugged from the message alone.
//
// # Error Categories
//
//   - tracking: misuse of the frame stack or of tag mutation during a pass
//   - consistency: a read observed a value that a later write made stale
//   - engine: an internal invariant failed (a bug in the engine itself)
//   - config: invalid configuration
//
// # Error Codes
//
// Each code maps to a template with message, detail and documentation URL:
//
//	err := errors.New(errors.CodeBacktracking).
//	    WithSubject("todos[3]").
//	    WithDepth(2)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR T002: Value changed after it was read in the same pass
//	//
//	//   tag todos[3] at frame depth 2
//	//   ...
//
// Two errors match under errors.Is when their codes are equal, so a bare
// template (errors.New(code)) works as a sentinel.
package errors
