package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/utils"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	commandUseConstant                = "migrate"
	commandShortDescriptionConstant   = "Copy billing resources to the destination account"
	commandLongDescriptionConstant    = "migrate walks every enabled resource kind of the source account in dependency order, filters it through the configured policies, and creates the survivors on the destination account while recording identifier mappings so later kinds and re-runs resolve references."
	dryRunFlagNameConstant            = "dry-run"
	dryRunFlagUsageConstant           = "Transform records without creating anything on the destination account"
	onlyFlagNameConstant              = "only"
	onlyFlagUsageConstant             = "Run only the listed resource kinds, ignoring their enabled flags"
	reportFormatFlagNameConstant      = "report-format"
	reportFormatFlagUsageConstant     = "Report format: table, yaml, or json"
	runFailedTemplateConstant         = "migration run %s aborted %d task(s)"
	renderReportErrorTemplateConstant = "unable to render report: %w"
	logMessageRunCompletedConstant    = "Migration run completed"
	logFieldRunIdentifierConstant     = "run_id"
	notMigratableKindTemplateConstant = "%s cannot be migrated; choose from %s"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CredentialsProvider supplies the account keys.
type CredentialsProvider func() (utils.Credentials, error)

// DependenciesProvider opens the collaborators of a run.
type DependenciesProvider func(executionContext context.Context, configuration Configuration, runID string, dryRun bool, logger *zap.Logger) (ServiceDependencies, error)

type commandOptions struct {
	debugLoggingEnabled bool
	dryRun              bool
	only                []billing.ResourceKind
	reportFormat        workflow.ReportFormat
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() Configuration
	CredentialsProvider   CredentialsProvider
	DependenciesProvider  DependenciesProvider
}

// Build constructs the migrate command.
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

	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().StringSlice(onlyFlagNameConstant, nil, onlyFlagUsageConstant)
	command.Flags().String(reportFormatFlagNameConstant, "", reportFormatFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()
	options, optionsError := builder.parseOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}
	if validationError := configuration.Validate(); validationError != nil {
		return validationError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)
	runID := uuid.NewString()

	dependencies, dependenciesError := builder.resolveDependencies(command.Context(), configuration, runID, options.dryRun, logger)
	if dependenciesError != nil {
		return dependenciesError
	}
	defer func() {
		_ = dependencies.Close()
	}()

	service, serviceError := NewService(dependencies)
	if serviceError != nil {
		return serviceError
	}

	report, runError := service.Run(command.Context(), configuration, RunOptions{RunID: runID, DryRun: options.dryRun, Only: options.only})
	if runError != nil {
		return runError
	}

	if renderError := workflow.RenderReport(command.OutOrStdout(), report, options.reportFormat); renderError != nil {
		return fmt.Errorf(renderReportErrorTemplateConstant, renderError)
	}
	logger.Info(logMessageRunCompletedConstant, zap.String(logFieldRunIdentifierConstant, report.RunID))

	abortedTasks := 0
	for _, taskReport := range report.Tasks {
		if taskReport.State == workflow.TaskStateFailed {
			abortedTasks++
		}
	}
	if abortedTasks > 0 {
		return fmt.Errorf(runFailedTemplateConstant, report.RunID, abortedTasks)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, configuration Configuration) (commandOptions, error) {
	options := commandOptions{dryRun: configuration.DryRun}

	contextAccessor := utils.NewCommandContextAccessor()
	if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
		options.debugLoggingEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
	}

	if command.Flags().Changed(dryRunFlagNameConstant) {
		dryRunValue, _ := command.Flags().GetBool(dryRunFlagNameConstant)
		options.dryRun = dryRunValue
	}

	onlyValues, _ := command.Flags().GetStringSlice(onlyFlagNameConstant)
	for _, onlyValue := range onlyValues {
		if len(strings.TrimSpace(onlyValue)) == 0 {
			continue
		}
		kind, parseError := billing.ParseResourceKind(onlyValue)
		if parseError != nil {
			return commandOptions{}, parseError
		}
		if !migratableKind(kind) {
			return commandOptions{}, fmt.Errorf(notMigratableKindTemplateConstant, kind, migratableKindNames())
		}
		options.only = append(options.only, kind)
	}

	reportFormatValue := configuration.ReportFormat
	if command.Flags().Changed(reportFormatFlagNameConstant) {
		reportFormatValue, _ = command.Flags().GetString(reportFormatFlagNameConstant)
	}
	reportFormat, formatError := workflow.ParseReportFormat(reportFormatValue)
	if formatError != nil {
		return commandOptions{}, formatError
	}
	options.reportFormat = reportFormat

	return options, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfigurationValues()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveDependencies(executionContext context.Context, configuration Configuration, runID string, dryRun bool, logger *zap.Logger) (ServiceDependencies, error) {
	if builder.DependenciesProvider != nil {
		return builder.DependenciesProvider(executionContext, configuration, runID, dryRun, logger)
	}
	credentialsProvider := builder.CredentialsProvider
	if credentialsProvider == nil {
		credentialsProvider = utils.NewCredentialLoader().Load
	}
	credentials, credentialsError := credentialsProvider()
	if credentialsError != nil {
		return ServiceDependencies{}, credentialsError
	}
	return OpenDependencies(executionContext, configuration, credentials, runID, dryRun, logger)
}

func migratableKind(kind billing.ResourceKind) bool {
	for _, migratable := range billing.MigratableResourceKinds() {
		if migratable == kind {
			return true
		}
	}
	return false
}

func migratableKindNames() string {
	names := make([]string, 0, len(billing.MigratableResourceKinds()))
	for _, kind := range billing.MigratableResourceKinds() {
		names = append(names, string(kind))
	}
	return strings.Join(names, ", ")
}
