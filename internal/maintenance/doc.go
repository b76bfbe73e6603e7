// Package maintenance provides the offline commands that seed the mapping store from
// CSV files and load exported invoices into the archive database.
package maintenance
