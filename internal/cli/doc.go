// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags and the optional pack.hcl file into the pipeline's
// internal configuration.
package cli
