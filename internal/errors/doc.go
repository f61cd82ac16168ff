// Package errors provides structured errors for liveserve.
//
// Errors carry a stable code (e.g., "E001"), a category, an optional detail
// paragraph, and a fix suggestion. Codes are defined in registry.go:
//
//   - E001-E049: server errors (listener binding)
//   - E050-E099: watch errors (embedded file watcher)
//   - E100-E199: configuration errors
//
// # Usage
//
//	return errors.New("E001").
//	    WithDetail("Address " + addr + " is unavailable").
//	    WithSuggestion("Pick a different port with --port").
//	    Wrap(err)
//
// The CLI prints fatal errors with Format(), which renders the code, detail,
// cause chain, and suggestion with ANSI colors.
package errors
