// Package gopcua adapts the gopcua OPC UA client to the driver
// interfaces, giving the session manager a real binary-protocol
// transport.
package gopcua
