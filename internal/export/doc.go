// Package export writes full-fidelity record dumps for audit and backfill. Dumps are
// JSON arrays named after the resource kind and land in a local directory, an S3
// bucket, or both.
package export
