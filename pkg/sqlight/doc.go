// Package sqlight is a thin convenience layer over an embedded sqlite
// database. Statements are defined either inline (Raw) or as named template
// files (Template, TemplateAt); a template's lookup directory can be deferred
// until execution time and supplied by the handle's configuration. Result rows
// are shaped by pluggable row factories: ordered tuple (default), map keyed by
// column name, or named record.
//
// Correctness and performance are delegated to the engine (modernc.org/sqlite).
// The wrapper adds statement resolution, row shaping, operation logging and a
// metrics hook, and blocks the one access path that would skip statement
// resolution: executing on the exposed cursor directly.
package sqlight
