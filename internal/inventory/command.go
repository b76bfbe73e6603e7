package inventory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/utils"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	commandUseConstant              = "inventory"
	commandShortDescriptionConstant = "Count source records per resource kind"
	commandLongDescriptionConstant  = "inventory walks the source account and reports, per resource kind, how many records exist and how many pass the configured migration policies. Nothing is written anywhere."
	onlyFlagNameConstant            = "only"
	onlyFlagUsageConstant           = "Count only the listed resource kinds"
	reportFormatFlagNameConstant    = "report-format"
	reportFormatFlagUsageConstant   = "Report format: table, yaml, or json"
	inventoryFailedTemplateConstant = "unable to count %d resource kind(s)"
	renderErrorTemplateConstant     = "unable to render inventory: %w"
	logMessageCompletedConstant     = "Inventory completed"
	logFieldFetchedTotalConstant    = "fetched_total"
	logFieldCandidateTotalConstant  = "candidates_total"

	invoicesCommandUseConstant              = "invoices"
	invoicesCommandShortDescriptionConstant = "Summarize an exported invoice artifact"
	invoicesCommandLongDescriptionConstant  = "inventory invoices reads an exported invoice artifact and reports invoice and customer counts, amounts due and paid, and tax per currency, and invoices per billing country. The source account is not contacted."
	fileFlagNameConstant                    = "file"
	fileFlagUsageConstant                   = "Invoice artifact to summarize (defaults to the invoice artifact in export.directory)"
	missingInvoiceArtifactMessageConstant   = "inventory invoices requires --file or export.directory"
	readInvoiceArtifactErrorTemplate        = "unable to read invoice artifact %s: %w"
	logMessageInvoiceSummaryConstant        = "Invoice summary completed"
	logFieldInvoicesConstant                = "invoices"
	logFieldArtifactConstant                = "artifact"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ListerProvider opens the source account client.
type ListerProvider func(executionContext context.Context, configuration migrate.Configuration) (platform.Lister, error)

// CommandBuilder assembles the inventory Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() migrate.Configuration
	CredentialsProvider   migrate.CredentialsProvider
	ListerProvider        ListerProvider
}

// Build constructs the inventory command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}
	command.Flags().StringSlice(onlyFlagNameConstant, nil, onlyFlagUsageConstant)
	command.Flags().String(reportFormatFlagNameConstant, "", reportFormatFlagUsageConstant)

	invoicesCommand := &cobra.Command{
		Use:           invoicesCommandUseConstant,
		Short:         invoicesCommandShortDescriptionConstant,
		Long:          invoicesCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runInvoices,
	}
	invoicesCommand.Flags().String(fileFlagNameConstant, "", fileFlagUsageConstant)
	invoicesCommand.Flags().String(reportFormatFlagNameConstant, "", reportFormatFlagUsageConstant)
	command.AddCommand(invoicesCommand)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()

	var kinds []billing.ResourceKind
	onlyValues, _ := command.Flags().GetStringSlice(onlyFlagNameConstant)
	for _, onlyValue := range onlyValues {
		if len(strings.TrimSpace(onlyValue)) == 0 {
			continue
		}
		kind, parseError := billing.ParseResourceKind(onlyValue)
		if parseError != nil {
			return parseError
		}
		kinds = append(kinds, kind)
	}

	reportFormat, formatError := resolveReportFormat(command, configuration)
	if formatError != nil {
		return formatError
	}

	logger := builder.resolveLogger(command.Context())
	lister, listerError := builder.resolveLister(command.Context(), configuration)
	if listerError != nil {
		return listerError
	}
	walker, walkerError := pagination.NewWalker(lister, configuration.PageSize, logger)
	if walkerError != nil {
		return walkerError
	}
	counter, counterError := NewCounter(walker, logger)
	if counterError != nil {
		return counterError
	}

	report, countError := counter.Count(command.Context(), Sources(configuration.Tasks, kinds))
	if countError != nil {
		return countError
	}
	if renderError := RenderReport(command.OutOrStdout(), report, reportFormat); renderError != nil {
		return fmt.Errorf(renderErrorTemplateConstant, renderError)
	}

	fetched, candidates := report.Totals()
	logger.Info(logMessageCompletedConstant, zap.Int(logFieldFetchedTotalConstant, fetched), zap.Int(logFieldCandidateTotalConstant, candidates))

	failedKinds := 0
	for _, entry := range report.Entries {
		if len(entry.Error) > 0 {
			failedKinds++
		}
	}
	if failedKinds > 0 {
		return fmt.Errorf(inventoryFailedTemplateConstant, failedKinds)
	}
	return nil
}

func (builder *CommandBuilder) runInvoices(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()
	reportFormat, formatError := resolveReportFormat(command, configuration)
	if formatError != nil {
		return formatError
	}

	artifactPath, _ := command.Flags().GetString(fileFlagNameConstant)
	artifactPath = strings.TrimSpace(artifactPath)
	if len(artifactPath) == 0 {
		if len(configuration.Export.Directory) == 0 {
			return errors.New(missingInvoiceArtifactMessageConstant)
		}
		artifactPath = filepath.Join(configuration.Export.Directory, export.ArtifactName(billing.ResourceKindInvoice))
	}

	records, readError := export.ReadRecordsFile(artifactPath)
	if readError != nil {
		return fmt.Errorf(readInvoiceArtifactErrorTemplate, artifactPath, readError)
	}
	invoices, decodeError := pagination.DecodeRecords[billing.Invoice](billing.ResourceKindInvoice, records)
	if decodeError != nil {
		return fmt.Errorf(readInvoiceArtifactErrorTemplate, artifactPath, decodeError)
	}

	summary := SummarizeInvoices(invoices)
	if renderError := RenderInvoiceSummary(command.OutOrStdout(), summary, reportFormat); renderError != nil {
		return fmt.Errorf(renderErrorTemplateConstant, renderError)
	}
	builder.resolveLogger(command.Context()).Info(
		logMessageInvoiceSummaryConstant,
		zap.String(logFieldArtifactConstant, artifactPath),
		zap.Int(logFieldInvoicesConstant, summary.Invoices),
	)
	return nil
}

func resolveReportFormat(command *cobra.Command, configuration migrate.Configuration) (workflow.ReportFormat, error) {
	reportFormatValue := configuration.ReportFormat
	if command.Flags().Changed(reportFormatFlagNameConstant) {
		reportFormatValue, _ = command.Flags().GetString(reportFormatFlagNameConstant)
	}
	return workflow.ParseReportFormat(reportFormatValue)
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

func (builder *CommandBuilder) resolveLister(executionContext context.Context, configuration migrate.Configuration) (platform.Lister, error) {
	if builder.ListerProvider != nil {
		return builder.ListerProvider(executionContext, configuration)
	}
	credentialsProvider := builder.CredentialsProvider
	if credentialsProvider == nil {
		credentialsProvider = utils.NewCredentialLoader().Load
	}
	credentials, credentialsError := credentialsProvider()
	if credentialsError != nil {
		return nil, credentialsError
	}
	return migrate.SourceClient(configuration, credentials)
}
