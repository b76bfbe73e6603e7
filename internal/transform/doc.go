// Package transform converts immutable source records into destination creation payloads.
//
// Every optional field follows an explicit presence rule: nil means omitted, a non-nil
// pointer is always sent. Foreign identifiers are resolved through a Resolver and pass
// through unchanged when the referenced record was never migrated.
package transform
