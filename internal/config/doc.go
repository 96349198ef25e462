// Package config handles Lookout's configuration.
//
// Configuration is read from a YAML file (~/.lookout/config.yaml by default)
// and falls back to built-in defaults when the file does not exist. A file
// that exists but fails validation is an error, never silently patched.
//
// # File format
//
//	socket:
//	  path: /var/run/lookoutd.socket
//	dns:
//	  resolvers:
//	    - 1.1.1.1:53
//	    - 8.8.8.8:53
//	  timeout: 5s
//	  retries: 2
//	  default_port: https
//
// The dns section feeds the query engine: resolvers must be host:port
// addresses, the timeout bounds a single exchange attempt, and default_port
// is spliced into resolution targets that carry no port of their own.
// Leaving resolvers empty makes the engine use the system resolver
// configuration loaded at process initialization.
//
// # Loading
//
//	cfg, err := config.New().Load()
//	if err != nil {
//		log.Fatalf("config error: %v", err)
//	}
//
// The Provider interface exists so tests can substitute an in-memory
// filesystem via NewWithPath.
package config
