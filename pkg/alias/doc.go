// Package alias maps human-readable names to node identifiers.
//
// Registries are loaded once at startup, from JSON (the simulator's
// export format) or CSV, and are immutable afterwards. Resolution is a
// pure in-memory lookup; unknown aliases fail with
// uaerrors.KindUnknownAlias.
package alias
