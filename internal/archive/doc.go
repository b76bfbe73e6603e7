// Package archive keeps migrated invoices in a relational table. Invoices are not
// recreated on the destination account; the archive is their destination.
package archive
