// Package config provides configuration parsing for trackbench.
//
// The configuration is stored in trackbench.yaml (or trackbench.json) in
// the working directory, or at the path given with --config. Missing fields
// take their defaults; command-line flags override the file.
//
// # Configuration File Structure
//
//	strict: true
//	logLevel: debug
//	metrics:
//	  enabled: true
//	  namespace: tracking
//	  addr: ":9090"
//	tracing:
//	  enabled: false
//	  tracerName: trackbench
//	bench:
//	  passes: 100
//	  width: 64
//	  depth: 3
//	  mutations: 4
//	  familySize: 256
//	  seed: 1
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Passes:", cfg.Bench.Passes)
package config
