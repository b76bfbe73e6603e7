// Package workflow orders resource kind tasks by their static dependencies, runs them one
// at a time, and aggregates per-item outcomes into a run report.
//
// Ordering is enforced; dependency satisfaction is only reported as warnings, because a
// previous run may already have produced the mappings a disabled task would supply.
package workflow
