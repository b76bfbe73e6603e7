// Package inventory counts the records of the source account per resource kind, both
// as listed and after the migration policies, so an operator can size a run before
// starting it.
package inventory
