package errors

import "sort"

// Registered error codes.
const (
	CodeDirtyDuringTracking = "T001"
	CodeBacktracking        = "T002"
	CodeUnbalancedFrame     = "T003"
	CodeCycle               = "T004"
	CodeRevisionRegression  = "T005"
	CodeEngineInvariant     = "T006"
	CodeInvalidConfig       = "T100"
	CodeConfigNotFound      = "T101"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Tracking Errors (T001-T049)
	// ============================================

	CodeDirtyDuringTracking: {
		Category:   CategoryTracking,
		Message:    "Tag dirtied while a tracking frame was open",
		Detail:     "A mutable value was written while a computation was still recording its reads. Writing during a render pass makes the pass observe two different versions of the world.",
		Suggestion: "Move the write into an event handler or run it after the pass has committed",
		DocURL:     "https://vango.dev/docs/errors/T001",
	},
	CodeBacktracking: {
		Category:   CategoryConsistency,
		Message:    "Value changed after it was read in the same pass",
		Detail:     "A tag was read, and then dirtied before the pass finished. Anything computed from the first read is now stale, but it has already been returned to the caller.",
		Suggestion: "Compute the new value before anything reads it, or defer the write until the pass has committed",
		DocURL:     "https://vango.dev/docs/errors/T002",
	},
	CodeUnbalancedFrame: {
		Category:   CategoryTracking,
		Message:    "Unbalanced tracking frame",
		Detail:     "Commit was called without a matching Begin, or a pass ended with frames still open.",
		Suggestion: "Pair every Begin with a Commit, or use Track which balances the stack with defer",
		DocURL:     "https://vango.dev/docs/errors/T003",
	},
	CodeCycle: {
		Category:   CategoryTracking,
		Message:    "Circular dependency detected",
		Detail:     "A cache was read from inside its own recipe, directly or through other caches.",
		DocURL:     "https://vango.dev/docs/errors/T004",
	},
	CodeRevisionRegression: {
		Category:   CategoryTracking,
		Message:    "Tag revision moved backwards",
		Detail:     "Update was called with a revision older than the tag's current revision.",
		Suggestion: "Pass a revision obtained from the same clock after the tag's last write",
		DocURL:     "https://vango.dev/docs/errors/T005",
	},

	// ============================================
	// Engine Errors (T050-T099)
	// ============================================

	CodeEngineInvariant: {
		Category: CategoryEngine,
		Message:  "Engine invariant violated",
		Detail:   "A committed frame produced a tag older than one of the tags it consumed. This is a bug in the tracking engine, not in the calling code.",
		DocURL:   "https://vango.dev/docs/errors/T006",
	},

	// ============================================
	// Config Errors (T100-T149)
	// ============================================

	CodeInvalidConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or contains out-of-range values.",
		DocURL:   "https://vango.dev/docs/errors/T100",
	},

	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Pass --config with the path to a trackbench.yaml or trackbench.json file",
		DocURL:     "https://vango.dev/docs/errors/T101",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
