// Package driver defines the protocol engine capability consumed by
// the session manager.
//
// A Driver opens Sessions; a Session resolves Nodes; a Node reads and
// writes one variable. Everything below these three interfaces (wire
// encoding, secure channel, user tokens) belongs to the engine, not to
// this module.
//
// Two implementations ship with the module:
//   - gopcua: a real OPC UA client built on github.com/gopcua/opcua.
//   - sim (pkg/sim): an in-process address space for tests and demos.
//
// Tests use the scripted fake in the drivertest subpackage.
package driver
