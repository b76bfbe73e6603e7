// Package failurelog appends item-level migration failures to a JSON lines file so an
// operator can remediate them after the run.
package failurelog
