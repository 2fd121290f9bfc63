// Package taxonomy defines the shared vocabulary of the prefilter: analysis
// modes, the closed set of sensitive-content categories, and the verdict
// value returned to callers.
//
// # Modes
//
// A Mode is persisted by name ("off", "light", "deep"). Unknown or empty
// names resolve to ModeLight, so a corrupt preference never disables or
// breaks analysis.
//
// # Categories
//
// Category identifiers are stable snake_case strings. Backends report raw
// scores keyed by internal strings; CategoryForKey translates those keys and
// drops anything it does not recognize, which keeps older builds working
// against newer models.
//
// # Verdicts
//
// A Verdict is a value type. Allow is true exactly when Categories is empty.
// Verdicts produced by a failure path (missing image, decode error, backend
// error) look the same as "nothing detected": the prefilter fails open, and
// callers that need to tell the two apart must consult the logs.
package taxonomy
