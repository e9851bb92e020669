// Package access is the read/write layer on top of the session
// manager.
//
// Operations accept either an alias or a node identifier in text form.
// Aliases resolve through the registry; identifiers pass through. Every
// operation requires an active session, measures its elapsed time, and
// classifies failures through uaerrors.
//
// Batch operations apply partial-failure semantics: ReadMany and
// WriteMany always return a complete map over the requested names, with
// per-name errors for items that failed. A failing item never aborts
// the batch.
//
// Writes apply soft type validation: a value that does not match the
// node's declared kind is recorded as a warning but still sent, because
// the server is the authority on what it accepts.
package access
