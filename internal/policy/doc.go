// Package policy decides which source records are eligible for migration. Policies are
// pure predicates evaluated before any transformation or destination call.
package policy
