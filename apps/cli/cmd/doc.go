// Package cmd implements the decorest CLI commands using Cobra.
//
// Available commands:
//   - call: Call one operation of a declared API
//   - stress: Call one operation repeatedly and report latency
//   - import: Generate a declaration from an OpenAPI document
//   - list: Display the operations declared in files
//   - validate: Check declaration files without calling anything
//   - version: Show decorest version information
//   - completion: Generate shell completion scripts
//
// Flags fall back to DECOREST_* environment variables, and declaration
// variables can come from the config file, dotenv files or --var.
package cmd
