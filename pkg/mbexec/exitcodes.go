// Package mbexec provides public constants for tools that run the mbexec CLI.
package mbexec

// Exit codes returned by the mbexec CLI.
// A batch exits with the code of its first failed target.
const (
	// ExitSuccess indicates every target succeeded.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure on a target (remote call failed,
	// unknown attribute, malformed literal, etc.).
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid config, unknown target, etc.).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (endpoint unreachable, etc.).
	ExitEnvError = 3
)
