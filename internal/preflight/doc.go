// Package preflight provides system validation checks run before the
// engine starts serving queries.
//
// The package validates:
//   - Disk space availability (minimum 100MB)
//   - Memory availability (minimum 1GB), checked against a fixed 4GB
//     estimate rather than measured system memory
//   - Write permissions in the index directory
//   - File descriptor limits (minimum 1024)
//   - Generator backend readiness (Ollama installed, running, model present)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, "/path/to/project", "qwen2.5:7b")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
