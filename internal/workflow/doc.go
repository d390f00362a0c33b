// Package workflow implements the Temporal workflow orchestrating the
// contribution evaluation pipeline.
//
// The workflow coordinates the identify, merge, and evaluate activities
// and computes rewards deterministically in workflow code. Agent-level
// retries are owned by the activity implementations' caller middleware, so
// activities run with a single Temporal attempt; the workflow's own retry
// policy only covers infrastructure failures.
//
// All code in this package follows Temporal determinism rules: no clocks,
// no randomness, no external I/O outside activities.
package workflow
