// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Info: the handful of facts the composer needs (duration, frame
//     geometry, frame rate, audio presence)
//   - Prober: Inspect plus a cache keyed by file identity
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Prober.Probe: cached Info for one file
package ffprobe
