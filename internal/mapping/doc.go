// Package mapping records which destination identifier each migrated source record
// received, so later resource kinds can rewrite their references and re-runs can skip
// records that were already migrated.
//
// Stores are append-only per (kind, source identifier). Memory, SQLite, and Redis
// backends are provided; Remapper layers a per-run snapshot over any of them.
package mapping
