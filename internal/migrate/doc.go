// Package migrate copies billing resources from a source account to a destination
// account. Each resource kind is a workflow task that walks the source collection,
// filters it through the kind's policy, transforms the survivors, and creates them on
// the destination while recording identifier mappings for later kinds and re-runs.
package migrate
