// Package proc runs external tools with bounded timeouts and classified
// failures.
//
// Every renderer and transcoder technify drives is an isolated external
// process. [Runner] is the seam: production code uses [Exec], tests supply
// a [RunnerFunc] that records invocations and fabricates output files.
//
// # Failure Classes
//
// [Exec] maps process failures onto [errors] codes:
//
//   - binary not found: TOOL_UNAVAILABLE
//   - deadline exceeded: TIMEOUT
//   - nonzero exit: TOOL_FAILED, with stderr kept verbatim in [RunError]
//
// A timeout kills the whole process group of the tool, so descendants it
// spawned do not outlive the deadline.
//
// Callers treat TIMEOUT and TOOL_FAILED alike through [IsFailure]. Nothing
// in this package retries.
//
// [errors]: github.com/matzehuels/technify/pkg/errors
package proc
