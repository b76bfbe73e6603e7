package archive

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	// MaximumImportSize bounds a single import.
	MaximumImportSize = 100000
	// DefaultBatchSize is the number of rows inserted per statement.
	DefaultBatchSize = 500

	mysqlDefaultStringSizeConstant  = 256
	missingDSNMessageConstant       = "archive DSN is required"
	missingWriterMessageConstant    = "archive requires a writer"
	openDatabaseErrorTemplate       = "unable to open archive database: %w"
	migrateSchemaErrorTemplate      = "unable to migrate archive schema: %w"
	tooManyRecordsTemplateConstant  = "%d invoices exceed the import limit of %d"
	batchFailedTemplateConstant     = "archive batch %d: %w"
	logMessageBatchImportedConstant = "Archived invoice batch"
	logMessageBatchFailedConstant   = "Archive batch failed"
	logFieldBatchNumberConstant     = "batch"
	logFieldBatchSizeConstant       = "batch_size"
)

// TooManyRecordsError rejects an import above MaximumImportSize.
type TooManyRecordsError struct {
	Count int
}

// Error describes the rejected import.
func (tooManyError TooManyRecordsError) Error() string {
	return fmt.Sprintf(tooManyRecordsTemplateConstant, tooManyError.Count, MaximumImportSize)
}

// Writer inserts archive rows. Rows whose SourceID is already archived are ignored.
type Writer interface {
	InsertInvoices(executionContext context.Context, records []InvoiceRecord) error
}

// GormWriter writes rows through gorm.
type GormWriter struct {
	database *gorm.DB
}

// NewGormWriter migrates the archive table and returns a writer over database.
func NewGormWriter(database *gorm.DB) (*GormWriter, error) {
	if migrateError := database.AutoMigrate(&InvoiceRecord{}); migrateError != nil {
		return nil, fmt.Errorf(migrateSchemaErrorTemplate, migrateError)
	}
	return &GormWriter{database: database}, nil
}

// InsertInvoices inserts records in one statement.
func (writer *GormWriter) InsertInvoices(executionContext context.Context, records []InvoiceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return writer.database.WithContext(executionContext).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records).Error
}

// OpenMySQL connects to a MySQL archive.
func OpenMySQL(dsn string) (*GormWriter, error) {
	if len(dsn) == 0 {
		return nil, errors.New(missingDSNMessageConstant)
	}
	database, openError := gorm.Open(mysql.New(mysql.Config{
		DSN:               dsn,
		DefaultStringSize: mysqlDefaultStringSizeConstant,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if openError != nil {
		return nil, fmt.Errorf(openDatabaseErrorTemplate, openError)
	}
	return NewGormWriter(database)
}

// BatchFailure reports a batch that could not be inserted.
type BatchFailure struct {
	SourceIDs []string
	Cause     error
}

// ImportSummary reports an import.
type ImportSummary struct {
	Imported []string
	Failures []BatchFailure
}

// Archive imports invoice rows in batches.
type Archive struct {
	writer    Writer
	batchSize int
	logger    *zap.Logger
}

// New builds an Archive. A non-positive batch size selects DefaultBatchSize.
func New(writer Writer, batchSize int, logger *zap.Logger) (*Archive, error) {
	if writer == nil {
		return nil, errors.New(missingWriterMessageConstant)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{writer: writer, batchSize: batchSize, logger: logger}, nil
}

// Import inserts records. Imports above MaximumImportSize are rejected before anything
// is written. A failed batch is reported and the remaining batches still run;
// cancellation stops the import.
func (archive *Archive) Import(executionContext context.Context, records []InvoiceRecord) (ImportSummary, error) {
	if len(records) > MaximumImportSize {
		return ImportSummary{}, TooManyRecordsError{Count: len(records)}
	}

	var summary ImportSummary
	for batchStart, batchNumber := 0, 1; batchStart < len(records); batchStart, batchNumber = batchStart+archive.batchSize, batchNumber+1 {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		batchEnd := batchStart + archive.batchSize
		if batchEnd > len(records) {
			batchEnd = len(records)
		}
		batch := records[batchStart:batchEnd]
		sourceIDs := make([]string, 0, len(batch))
		for _, record := range batch {
			sourceIDs = append(sourceIDs, record.SourceID)
		}

		if insertError := archive.writer.InsertInvoices(executionContext, batch); insertError != nil {
			archive.logger.Warn(logMessageBatchFailedConstant, zap.Int(logFieldBatchNumberConstant, batchNumber), zap.Error(insertError))
			summary.Failures = append(summary.Failures, BatchFailure{SourceIDs: sourceIDs, Cause: fmt.Errorf(batchFailedTemplateConstant, batchNumber, insertError)})
			continue
		}
		archive.logger.Debug(logMessageBatchImportedConstant, zap.Int(logFieldBatchNumberConstant, batchNumber), zap.Int(logFieldBatchSizeConstant, len(batch)))
		summary.Imported = append(summary.Imported, sourceIDs...)
	}
	return summary, nil
}
