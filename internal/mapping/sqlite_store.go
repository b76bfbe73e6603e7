package mapping

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	sqliteDriverNameConstant          = "sqlite"
	sqliteDataSourceTemplateConstant  = "file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	migrationsDirectoryConstant       = "migrations"
	migrationsSourceNameConstant      = "iofs"
	sqliteDirectoryPermissionConstant = 0o755
	migrationSourceErrorTemplate      = "unable to read mapping migrations: %w"
	migrationDriverErrorTemplate      = "unable to prepare mapping migrations: %w"
	migrationApplyErrorTemplate       = "unable to apply mapping migrations: %w"
	selectMappingsQueryConstant       = "SELECT source_id, destination_id FROM id_mappings WHERE kind = ?"
	selectMappingQueryConstant        = "SELECT destination_id FROM id_mappings WHERE kind = ? AND source_id = ?"
	insertMappingQueryConstant        = "INSERT OR IGNORE INTO id_mappings (kind, source_id, destination_id) VALUES (?, ?, ?)"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps mappings in a local SQLite database.
type SQLiteStore struct {
	database *sql.DB
}

// OpenSQLiteStore opens or creates the database at path and applies pending schema
// migrations.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if len(path) == 0 {
		return nil, errors.New(missingSQLitePathMessageConstant)
	}
	if directory := filepath.Dir(path); len(directory) > 0 {
		if directoryError := os.MkdirAll(directory, sqliteDirectoryPermissionConstant); directoryError != nil {
			return nil, StoreError{Operation: storeOperationOpenConstant, Cause: directoryError}
		}
	}

	database, openError := sql.Open(sqliteDriverNameConstant, fmt.Sprintf(sqliteDataSourceTemplateConstant, path))
	if openError != nil {
		return nil, StoreError{Operation: storeOperationOpenConstant, Cause: openError}
	}
	// SQLite serializes writers; a single connection avoids busy errors between goroutines.
	database.SetMaxOpenConns(1)

	if migrationError := applyMigrations(database); migrationError != nil {
		_ = database.Close()
		return nil, StoreError{Operation: storeOperationOpenConstant, Cause: migrationError}
	}
	return &SQLiteStore{database: database}, nil
}

func applyMigrations(database *sql.DB) error {
	source, sourceError := iofs.New(migrationFiles, migrationsDirectoryConstant)
	if sourceError != nil {
		return fmt.Errorf(migrationSourceErrorTemplate, sourceError)
	}
	driver, driverError := migratesqlite.WithInstance(database, &migratesqlite.Config{})
	if driverError != nil {
		return fmt.Errorf(migrationDriverErrorTemplate, driverError)
	}
	migrator, migratorError := migrate.NewWithInstance(migrationsSourceNameConstant, source, sqliteDriverNameConstant, driver)
	if migratorError != nil {
		return fmt.Errorf(migrationDriverErrorTemplate, migratorError)
	}
	// The migrator is not closed: closing it would close the shared database handle.
	if upError := migrator.Up(); upError != nil && !errors.Is(upError, migrate.ErrNoChange) {
		return fmt.Errorf(migrationApplyErrorTemplate, upError)
	}
	return nil
}

// Load returns every mapping of kind.
func (store *SQLiteStore) Load(executionContext context.Context, kind billing.ResourceKind) (map[string]string, error) {
	rows, queryError := store.database.QueryContext(executionContext, selectMappingsQueryConstant, string(kind))
	if queryError != nil {
		return nil, StoreError{Operation: storeOperationLoadConstant, Kind: kind, Cause: queryError}
	}
	defer rows.Close()

	mappings := map[string]string{}
	for rows.Next() {
		var sourceID, destinationID string
		if scanError := rows.Scan(&sourceID, &destinationID); scanError != nil {
			return nil, StoreError{Operation: storeOperationLoadConstant, Kind: kind, Cause: scanError}
		}
		mappings[sourceID] = destinationID
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, StoreError{Operation: storeOperationLoadConstant, Kind: kind, Cause: rowsError}
	}
	return mappings, nil
}

// Get returns the destination identifier of sourceID.
func (store *SQLiteStore) Get(executionContext context.Context, kind billing.ResourceKind, sourceID string) (string, bool, error) {
	var destinationID string
	scanError := store.database.QueryRowContext(executionContext, selectMappingQueryConstant, string(kind), sourceID).Scan(&destinationID)
	switch {
	case errors.Is(scanError, sql.ErrNoRows):
		return "", false, nil
	case scanError != nil:
		return "", false, StoreError{Operation: storeOperationGetConstant, Kind: kind, Cause: scanError}
	}
	return destinationID, true, nil
}

// Put inserts a mapping; an existing mapping for sourceID is left untouched.
func (store *SQLiteStore) Put(executionContext context.Context, kind billing.ResourceKind, sourceID string, destinationID string) error {
	if len(sourceID) == 0 || len(destinationID) == 0 {
		return StoreError{Operation: storeOperationPutConstant, Kind: kind, Cause: errEmptyIdentifier}
	}
	if _, execError := store.database.ExecContext(executionContext, insertMappingQueryConstant, string(kind), sourceID, destinationID); execError != nil {
		return StoreError{Operation: storeOperationPutConstant, Kind: kind, Cause: execError}
	}
	return nil
}

// Close releases the database.
func (store *SQLiteStore) Close() error {
	return store.database.Close()
}
