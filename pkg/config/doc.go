// Package config loads the YAML client configuration.
//
// A config file names the endpoint, its retry policy, the alias file
// and the diagnostics options:
//
//	endpoint:
//	  url: opc.tcp://192.168.0.5:4840
//	  connect_timeout: 5s
//	  retry:
//	    max_attempts: 3
//	    initial_delay: 500ms
//	    multiplier: 2.0
//	alias_file: aliases.json
//	diagnostics:
//	  level: info
//	  file: client.dlog
//
// Omitted fields keep their defaults. Durations are strings in Go
// syntax ("500ms", "5s"). Command-line flags override file values in
// the opclink commands.
package config
