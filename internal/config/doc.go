// Package config loads and validates the rivet.json project configuration.
//
// Precedence, lowest to highest: built-in defaults, rivet.json, .env file,
// process environment (RIVET_* variables). CLI flags are applied by the
// command layer on top of the loaded Config.
package config
