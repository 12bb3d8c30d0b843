// Package cli implements the httpkit command-line interface.
//
// The CLI is a thin front-end over the client package: every command builds a
// client from flags and an optional TOML file, issues requests and writes
// response bodies to stdout. Logs go to stderr through charmbracelet/log.
//
// # Commands
//
//   - get: fetch one or more URLs concurrently, optionally repeated to
//     exercise the response cache
//   - post, put: send a json, form, text or blob body
//   - delete: remove a resource
//   - check: probe endpoints and report healthy, degraded or unhealthy
//
// # Configuration
//
// Flags override values read from --config. See FileConfig for the file
// layout. Header values in the file may reference environment variables as
// ${NAME}.
package cli
