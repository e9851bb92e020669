// Package sim provides a simulated OPC UA address space and an
// in-process driver over it, for demos and integration tests that need
// a live server without a network.
//
// An address space is built programmatically with AddVariable or
// loaded from a CSV node definition file with LoadCSV. Browse exposes
// the browse-name to node-ID map and ExportAliases writes it as a JSON
// alias file for clients.
package sim
