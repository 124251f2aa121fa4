// Package config provides configuration management for nest-test.
//
// This package implements a layered configuration system that allows users
// to customize the harness through YAML files. Configuration is loaded from
// multiple sources and merged in a specific order, with later sources
// overriding earlier ones.
//
// # Configuration Layers
//
// Configuration is loaded and merged in the following order:
//
//  1. Default Configuration (embedded in binary)
//     - Provides sensible defaults for all settings
//     - Ensures nest-test works out-of-the-box when the binaries are on PATH
//
//  2. User Configuration (~/.config/nest-test/config.yaml)
//     - User-specific settings that apply to all projects
//     - Useful for pointing at locally built nest binaries
//
//  3. Project Configuration (./.nest-test/config.yaml)
//     - Project-specific settings in the current directory
//     - Allows teams to share configuration via version control
//
//  4. Environment variables (NEST_BIN, FINEST_BIN, NEST_SERVER_BIN)
//     - Override binary locations from both files
//     - Convenient for CI jobs that build the binaries into a scratch dir
//
// # Configuration Structure
//
// The configuration file uses YAML format with the following sections:
//
//	binaries:
//	  nest: /home/me/raven/target/debug/nest
//	  finest: /home/me/raven/target/debug/finest
//	  nest_server: /home/me/raven/target/debug/nest-server
//
//	server:
//	  base_port: 18000
//	  ready_timeout: 30s
//	  stop_grace: 10s
//	  keep_workspaces: false
//
//	invoke:
//	  timeout: 2m
//	  sudo: false
//
//	scenarios:
//	  path: ./scenarios
//	  report_path: ./reports
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("server fixture ports start at %d\n", cfg.Server.BasePort)
package config
