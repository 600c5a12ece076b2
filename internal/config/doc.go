// Package config provides configuration management for qutebdd.
//
// Configuration is loaded from multiple YAML sources and merged in a fixed
// order, with later sources overriding earlier ones:
//
//  1. Default configuration (compiled in)
//  2. User configuration (~/.config/qutebdd/config.yaml)
//  3. Project configuration (./.qutebdd/config.yaml)
//  4. An explicit file passed with --config
//
// Command-line flags are applied by the cmd package on top of the result.
//
// A project file typically only points the harness at a different browser
// build and data directory:
//
//	browser:
//	  executable: python3
//	  args: ["-m", "qutebrowser", "--debug", "--json-logging", "--temp-basedir"]
//	  ignoredMessages:
//	    - "QXcbClipboard: SelectionRequest too old"
//	httpbin:
//	  dataDir: tests/integration/data
//	timeouts:
//	  wait: 20s
//
// Scalars present in a file replace the current value. Lists present in a
// file replace the whole list; they are not appended.
package config
