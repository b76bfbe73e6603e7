package cutover

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/failurelog"
	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/policy"
	"github.com/temirov/billmigrate/internal/utils"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	commandUseConstant                 = "cutover"
	commandShortDescriptionConstant    = "Pause or resume invoice collection on the source account"
	pauseUseConstant                   = "pause"
	pauseShortDescriptionConstant      = "Pause collection of source subscriptions, marking new invoices uncollectible"
	resumeUseConstant                  = "resume"
	resumeShortDescriptionConstant     = "Resume collection of paused source subscriptions"
	inputFlagNameConstant              = "input"
	inputFlagUsageConstant             = "Read subscriptions from an exported subscriptions.json instead of listing the source account"
	offsetFlagNameConstant             = "offset"
	offsetFlagUsageConstant            = "Skip this many subscriptions of the input"
	limitFlagNameConstant              = "limit"
	limitFlagUsageConstant             = "Process at most this many subscriptions (0 processes all)"
	dryRunFlagNameConstant             = "dry-run"
	dryRunFlagUsageConstant            = "Report what would change without updating any subscription"
	reportFormatFlagNameConstant       = "report-format"
	reportFormatFlagUsageConstant      = "Report format: table, yaml, or json"
	readInputErrorTemplateConstant     = "unable to read subscriptions from %s: %w"
	failureLogErrorTemplateConstant    = "unable to open failure log: %w"
	renderErrorTemplateConstant        = "unable to render report: %w"
	cutoverFailedTemplateConstant      = "cutover %s aborted: %s"
	logMessageCutoverFinishedConst     = "Cutover finished"
	logFieldRunIdentifierConstant      = "run_id"
	logFieldInputConstant              = "input"
	logMessageSubscriptionsLoadedConst = "Loaded subscriptions"
	logFieldLoadedConstant             = "loaded"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SourceAccount lists and updates source subscriptions.
type SourceAccount interface {
	platform.Lister
	platform.Updater
}

// AccountProvider opens the source account client.
type AccountProvider func(executionContext context.Context, configuration migrate.Configuration) (SourceAccount, error)

// FailureLogProvider opens the failure log of a run.
type FailureLogProvider func(path string, runID string) (failurelog.Log, error)

type commandOptions struct {
	input        string
	window       Window
	dryRun       bool
	reportFormat workflow.ReportFormat
	debug        bool
}

// CommandBuilder assembles the cutover command and its pause and resume subcommands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() migrate.Configuration
	CredentialsProvider   migrate.CredentialsProvider
	AccountProvider       AccountProvider
	FailureLogProvider    FailureLogProvider
	Clock                 clock.Clock
}

// Build constructs the cutover command tree.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	command.AddCommand(
		builder.buildAction(ActionPause, pauseUseConstant, pauseShortDescriptionConstant),
		builder.buildAction(ActionResume, resumeUseConstant, resumeShortDescriptionConstant),
	)
	return command, nil
}

func (builder *CommandBuilder) buildAction(action Action, use string, short string) *cobra.Command {
	command := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.run(command, action)
		},
	}
	command.Flags().String(inputFlagNameConstant, "", inputFlagUsageConstant)
	command.Flags().Int(offsetFlagNameConstant, 0, offsetFlagUsageConstant)
	command.Flags().Int(limitFlagNameConstant, 0, limitFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().String(reportFormatFlagNameConstant, "", reportFormatFlagUsageConstant)
	return command
}

func (builder *CommandBuilder) run(command *cobra.Command, action Action) error {
	configuration := builder.resolveConfiguration()
	options, optionsError := parseOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}
	logger := builder.resolveLogger(options.debug)
	wallClock := builder.Clock
	if wallClock == nil {
		wallClock = clock.WallClock
	}
	runID := uuid.NewString()
	startedAt := wallClock.Now().UTC()

	account, accountError := builder.resolveAccount(command.Context(), configuration)
	if accountError != nil {
		return accountError
	}

	subscriptions, liveState, loadError := loadSubscriptions(command.Context(), account, configuration.PageSize, options.input, logger)
	if loadError != nil {
		return loadError
	}
	selected := options.window.Apply(subscriptions)
	logger.Info(logMessageSubscriptionsLoadedConst, zap.Int(logFieldLoadedConstant, len(subscriptions)), zap.String(logFieldInputConstant, options.input))

	var failureLog failurelog.Log = failurelog.Nop{}
	if !options.dryRun && len(configuration.FailureLogPath) > 0 {
		openedLog, failureLogError := builder.openFailureLog(configuration.FailureLogPath, runID)
		if failureLogError != nil {
			return fmt.Errorf(failureLogErrorTemplateConstant, failureLogError)
		}
		failureLog = openedLog
	}
	defer func() {
		_ = failureLog.Close()
	}()

	runner, runnerError := NewRunner(Dependencies{
		Updater:    account,
		FailureLog: failureLog,
		Logger:     logger.With(zap.String(logFieldRunIdentifierConstant, runID)),
		Policy:     policy.SubscriptionPolicy(configuration.Tasks.Subscriptions.SubscriptionConfiguration),
		LiveState:  liveState,
		DryRun:     options.dryRun,
	})
	if runnerError != nil {
		return runnerError
	}

	taskReport := runner.Run(command.Context(), action, selected)
	report := workflow.RunReport{
		RunID:      runID,
		DryRun:     options.dryRun,
		StartedAt:  startedAt,
		FinishedAt: wallClock.Now().UTC(),
		Tasks:      []workflow.TaskReport{taskReport},
	}
	if renderError := workflow.RenderReport(command.OutOrStdout(), report, options.reportFormat); renderError != nil {
		return fmt.Errorf(renderErrorTemplateConstant, renderError)
	}
	logger.Info(logMessageCutoverFinishedConst, zap.String(logFieldRunIdentifierConstant, runID), zap.String(logFieldActionConstant, string(action)))

	if taskReport.State == workflow.TaskStateFailed {
		return fmt.Errorf(cutoverFailedTemplateConstant, action, taskReport.Error)
	}
	return nil
}

func parseOptions(command *cobra.Command, configuration migrate.Configuration) (commandOptions, error) {
	options := commandOptions{dryRun: configuration.DryRun}
	if logLevel, available := utils.NewCommandContextAccessor().LogLevel(command.Context()); available {
		options.debug = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
	}

	options.input, _ = command.Flags().GetString(inputFlagNameConstant)
	options.window.Offset, _ = command.Flags().GetInt(offsetFlagNameConstant)
	options.window.Limit, _ = command.Flags().GetInt(limitFlagNameConstant)
	if windowError := options.window.Validate(); windowError != nil {
		return commandOptions{}, windowError
	}
	if command.Flags().Changed(dryRunFlagNameConstant) {
		options.dryRun, _ = command.Flags().GetBool(dryRunFlagNameConstant)
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

// loadSubscriptions reads the export file when input is set and lists the source account
// otherwise. The boolean reports whether the records reflect the current account state.
func loadSubscriptions(executionContext context.Context, lister platform.Lister, pageSize int, input string, logger *zap.Logger) ([]billing.Subscription, bool, error) {
	if len(strings.TrimSpace(input)) > 0 {
		items, readError := export.ReadRecordsFile(input)
		if readError != nil {
			return nil, false, fmt.Errorf(readInputErrorTemplateConstant, input, readError)
		}
		subscriptions, decodeError := pagination.DecodeRecords[billing.Subscription](billing.ResourceKindSubscription, items)
		if decodeError != nil {
			return nil, false, fmt.Errorf(readInputErrorTemplateConstant, input, decodeError)
		}
		return subscriptions, false, nil
	}

	walker, walkerError := pagination.NewWalker(lister, pageSize, logger)
	if walkerError != nil {
		return nil, false, walkerError
	}
	subscriptions, fetchError := pagination.FetchRecords[billing.Subscription](executionContext, walker, billing.ResourceKindSubscription, pagination.Query{})
	if fetchError != nil {
		return nil, false, fetchError
	}
	return subscriptions, true, nil
}

func (builder *CommandBuilder) resolveConfiguration() migrate.Configuration {
	if builder.ConfigurationProvider == nil {
		return migrate.DefaultConfigurationValues()
	}
	return builder.ConfigurationProvider().Sanitize()
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

func (builder *CommandBuilder) resolveAccount(executionContext context.Context, configuration migrate.Configuration) (SourceAccount, error) {
	if builder.AccountProvider != nil {
		return builder.AccountProvider(executionContext, configuration)
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

func (builder *CommandBuilder) openFailureLog(path string, runID string) (failurelog.Log, error) {
	if builder.FailureLogProvider != nil {
		return builder.FailureLogProvider(path, runID)
	}
	return failurelog.OpenFile(path, runID)
}
