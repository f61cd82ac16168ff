// Package config provides configuration for the liveserve server.
//
// Configuration is resolved once at startup: defaults, then an optional
// liveserve.json next to the served directory, then command-line flags.
// The resulting Config is immutable for the process lifetime.
//
// # Configuration File Structure
//
//	{
//	  "root": "public",
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 4000,
//	    "wsPort": 8090,
//	    "triggerPort": 4001
//	  },
//	  "watch": {
//	    "enabled": true,
//	    "ignore": ["*.tmp", "node_modules"],
//	    "debounceMs": 100
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Serving on", cfg.Address())
package config
