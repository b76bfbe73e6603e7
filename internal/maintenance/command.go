package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/billmigrate/internal/archive"
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/mapping"
	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/utils"
)

const (
	mappingUseConstant                = "mapping"
	mappingShortDescriptionConstant   = "Manage the identifier mapping store"
	mappingImportUseConstant          = "import"
	mappingImportShortConstant        = "Import source_id_old,source_id_new pairs from a CSV file"
	archiveUseConstant                = "archive"
	archiveShortDescriptionConstant   = "Manage the invoice archive"
	archiveImportUseConstant          = "import"
	archiveImportShortConstant        = "Load an exported invoices.json into the archive database"
	kindFlagNameConstant              = "kind"
	kindFlagUsageConstant             = "Resource kind the identifiers belong to, e.g. customers"
	fileFlagNameConstant              = "file"
	mappingFileFlagUsageConstant      = "CSV file with source_id_old and source_id_new columns"
	archiveFileFlagUsageConstant      = "Exported invoices.json file"
	missingFileMessageConstant        = "--file is required"
	missingKindMessageConstant        = "--kind is required"
	missingArchiveDSNMessageConstant  = "archive import requires archive.dsn"
	openFileErrorTemplateConstant     = "unable to open %s: %w"
	openStoreErrorTemplateConstant    = "unable to open mapping store: %w"
	openArchiveErrorTemplateConstant  = "unable to open archive: %w"
	mappingSummaryTemplateConstant    = "Imported %d %s mapping(s), skipped %d\n"
	archiveSummaryTemplateConstant    = "Archived %d invoice(s), %d failed\n"
	archiveFailedTemplateConstant     = "%d invoice(s) could not be archived"
	logMessageMappingImportedConstant = "Mapping import completed"
	logMessageArchiveImportedConstant = "Archive import completed"
	logMessageArchiveBatchFailedConst = "Invoices not archived"
	logFieldKindConstant              = "kind"
	logFieldFileConstant              = "file"
	logFieldImportedConstant          = "imported"
	logFieldSkippedConstant           = "skipped"
	logFieldFailedConstant            = "failed"
	logFieldSourceIdentifiersConstant = "source_ids"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// StoreProvider opens the mapping store.
type StoreProvider func(executionContext context.Context, configuration mapping.StoreConfiguration) (mapping.Store, error)

// ArchiveWriterProvider opens the archive database located by dsn.
type ArchiveWriterProvider func(dsn string) (archive.Writer, error)

// CommandBuilder assembles the mapping and archive maintenance commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() migrate.Configuration
	StoreProvider         StoreProvider
	ArchiveWriterProvider ArchiveWriterProvider
}

// Build returns the mapping and archive command trees.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	mappingCommand := &cobra.Command{
		Use:           mappingUseConstant,
		Short:         mappingShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	mappingImportCommand := &cobra.Command{
		Use:           mappingImportUseConstant,
		Short:         mappingImportShortConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMappingImport,
	}
	mappingImportCommand.Flags().String(kindFlagNameConstant, "", kindFlagUsageConstant)
	mappingImportCommand.Flags().String(fileFlagNameConstant, "", mappingFileFlagUsageConstant)
	mappingCommand.AddCommand(mappingImportCommand)

	archiveCommand := &cobra.Command{
		Use:           archiveUseConstant,
		Short:         archiveShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	archiveImportCommand := &cobra.Command{
		Use:           archiveImportUseConstant,
		Short:         archiveImportShortConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runArchiveImport,
	}
	archiveImportCommand.Flags().String(fileFlagNameConstant, "", archiveFileFlagUsageConstant)
	archiveCommand.AddCommand(archiveImportCommand)

	return []*cobra.Command{mappingCommand, archiveCommand}, nil
}

func (builder *CommandBuilder) runMappingImport(command *cobra.Command, _ []string) error {
	kindValue, _ := command.Flags().GetString(kindFlagNameConstant)
	if len(strings.TrimSpace(kindValue)) == 0 {
		return errors.New(missingKindMessageConstant)
	}
	kind, kindError := billing.ParseResourceKind(kindValue)
	if kindError != nil {
		return kindError
	}
	filePath, fileError := requiredFile(command)
	if fileError != nil {
		return fileError
	}

	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger(command.Context())

	file, openError := os.Open(filePath)
	if openError != nil {
		return fmt.Errorf(openFileErrorTemplateConstant, filePath, openError)
	}
	defer file.Close()

	store, storeError := builder.openStore(command.Context(), configuration.Mapping)
	if storeError != nil {
		return fmt.Errorf(openStoreErrorTemplateConstant, storeError)
	}
	defer func() {
		_ = store.Close()
	}()

	summary, importError := mapping.ImportCSV(command.Context(), store, kind, file)
	if importError != nil {
		return importError
	}
	if _, writeError := fmt.Fprintf(command.OutOrStdout(), mappingSummaryTemplateConstant, summary.Imported, kind.Singular(), summary.Skipped); writeError != nil {
		return writeError
	}
	logger.Info(
		logMessageMappingImportedConstant,
		zap.String(logFieldKindConstant, string(kind)),
		zap.String(logFieldFileConstant, filePath),
		zap.Int(logFieldImportedConstant, summary.Imported),
		zap.Int(logFieldSkippedConstant, summary.Skipped),
	)
	return nil
}

func (builder *CommandBuilder) runArchiveImport(command *cobra.Command, _ []string) error {
	filePath, fileError := requiredFile(command)
	if fileError != nil {
		return fileError
	}
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger(command.Context())

	records, loadError := loadInvoiceRecords(filePath)
	if loadError != nil {
		return loadError
	}

	writer, writerError := builder.openArchiveWriter(configuration.Archive.DSN)
	if writerError != nil {
		return fmt.Errorf(openArchiveErrorTemplateConstant, writerError)
	}
	invoiceArchive, archiveError := archive.New(writer, configuration.Archive.BatchSize, logger)
	if archiveError != nil {
		return fmt.Errorf(openArchiveErrorTemplateConstant, archiveError)
	}

	summary, importError := invoiceArchive.Import(command.Context(), records)
	if importError != nil {
		return importError
	}
	failedCount := 0
	for _, failure := range summary.Failures {
		failedCount += len(failure.SourceIDs)
		logger.Warn(logMessageArchiveBatchFailedConst, zap.Strings(logFieldSourceIdentifiersConstant, failure.SourceIDs), zap.Error(failure.Cause))
	}
	if _, writeError := fmt.Fprintf(command.OutOrStdout(), archiveSummaryTemplateConstant, len(summary.Imported), failedCount); writeError != nil {
		return writeError
	}
	logger.Info(
		logMessageArchiveImportedConstant,
		zap.String(logFieldFileConstant, filePath),
		zap.Int(logFieldImportedConstant, len(summary.Imported)),
		zap.Int(logFieldFailedConstant, failedCount),
	)
	if failedCount > 0 {
		return fmt.Errorf(archiveFailedTemplateConstant, failedCount)
	}
	return nil
}

// loadInvoiceRecords reads an invoices export and projects every invoice onto an
// archive row, keeping the raw JSON alongside.
func loadInvoiceRecords(filePath string) ([]archive.InvoiceRecord, error) {
	items, readError := export.ReadRecordsFile(filePath)
	if readError != nil {
		return nil, fmt.Errorf(openFileErrorTemplateConstant, filePath, readError)
	}
	invoices, decodeError := pagination.DecodeRecords[billing.Invoice](billing.ResourceKindInvoice, items)
	if decodeError != nil {
		return nil, decodeError
	}
	records := make([]archive.InvoiceRecord, 0, len(invoices))
	for invoiceIndex, invoice := range invoices {
		records = append(records, archive.NewInvoiceRecord(invoice, items[invoiceIndex]))
	}
	return records, nil
}

func requiredFile(command *cobra.Command) (string, error) {
	filePath, _ := command.Flags().GetString(fileFlagNameConstant)
	filePath = strings.TrimSpace(filePath)
	if len(filePath) == 0 {
		return "", errors.New(missingFileMessageConstant)
	}
	return filePath, nil
}

func (builder *CommandBuilder) resolveConfiguration() migrate.Configuration {
	if builder.ConfigurationProvider == nil {
		return migrate.DefaultConfigurationValues()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger(executionContext context.Context) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if logLevel, available := utils.NewCommandContextAccessor().LogLevel(executionContext); available && strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) openStore(executionContext context.Context, configuration mapping.StoreConfiguration) (mapping.Store, error) {
	if builder.StoreProvider != nil {
		return builder.StoreProvider(executionContext, configuration)
	}
	return mapping.OpenStore(executionContext, configuration)
}

func (builder *CommandBuilder) openArchiveWriter(dsn string) (archive.Writer, error) {
	if builder.ArchiveWriterProvider != nil {
		return builder.ArchiveWriterProvider(dsn)
	}
	if len(strings.TrimSpace(dsn)) == 0 {
		return nil, errors.New(missingArchiveDSNMessageConstant)
	}
	return archive.OpenMySQL(dsn)
}
