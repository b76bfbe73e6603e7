package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/archive"
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/failurelog"
	"github.com/temirov/billmigrate/internal/mapping"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/transform"
	"github.com/temirov/billmigrate/internal/utils"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	missingSourceMessageConstant      = "migration requires a source client"
	missingDestinationMessageConstant = "migration requires a destination client"
	missingStoreMessageConstant       = "migration requires a mapping store"
	sourceClientErrorTemplate         = "unable to construct source client: %w"
	destinationClientErrorTemplate    = "unable to construct destination client: %w"
	mappingStoreErrorTemplate         = "unable to open mapping store: %w"
	failureLogErrorTemplate           = "unable to open failure log: %w"
	exportSinkErrorTemplate           = "unable to open export destination: %w"
	archiveErrorTemplate              = "unable to open invoice archive: %w"
	logFieldDryRunConstant            = "dry_run"
	logFieldOnlyConstant              = "only"
	logMessageRunPlannedConstant      = "Migration planned"
)

// ServiceDependencies are the collaborators of a migration run.
type ServiceDependencies struct {
	Logger      *zap.Logger
	Source      platform.Lister
	Destination platform.Creator
	Store       mapping.Store
	FailureLog  failurelog.Log
	ExportSink  export.Sink
	Archive     *archive.Archive
	Clock       clock.Clock
}

// Close releases the mapping store and the failure log.
func (dependencies ServiceDependencies) Close() error {
	var closeErrors []error
	if dependencies.FailureLog != nil {
		closeErrors = append(closeErrors, dependencies.FailureLog.Close())
	}
	if dependencies.Store != nil {
		closeErrors = append(closeErrors, dependencies.Store.Close())
	}
	return errors.Join(closeErrors...)
}

// RunOptions tunes one run.
type RunOptions struct {
	RunID  string
	DryRun bool
	// Only restricts the run to the listed kinds regardless of their enabled flags.
	Only []billing.ResourceKind
}

// Service runs migrations.
type Service struct {
	dependencies ServiceDependencies
}

// NewService validates dependencies and applies defaults.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Source == nil {
		return nil, errors.New(missingSourceMessageConstant)
	}
	if dependencies.Destination == nil {
		return nil, errors.New(missingDestinationMessageConstant)
	}
	if dependencies.Store == nil {
		return nil, errors.New(missingStoreMessageConstant)
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.FailureLog == nil {
		dependencies.FailureLog = failurelog.Nop{}
	}
	if dependencies.Clock == nil {
		dependencies.Clock = clock.WallClock
	}
	return &Service{dependencies: dependencies}, nil
}

// Run executes every enabled kind in dependency order and returns the run report.
func (service *Service) Run(executionContext context.Context, configuration Configuration, options RunOptions) (workflow.RunReport, error) {
	configuration = configuration.Sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return workflow.RunReport{}, validationError
	}
	runID := options.RunID
	if len(runID) == 0 {
		runID = uuid.NewString()
	}
	dryRun := options.DryRun || configuration.DryRun
	logger := service.dependencies.Logger

	walker, walkerError := pagination.NewWalker(service.dependencies.Source, configuration.PageSize, logger)
	if walkerError != nil {
		return workflow.RunReport{}, walkerError
	}
	remapper, remapperError := mapping.NewRemapper(service.dependencies.Store)
	if remapperError != nil {
		return workflow.RunReport{}, remapperError
	}
	transformer := transform.NewTransformer(remapper, transform.Options{
		Clock:                    service.dependencies.Clock,
		TraceabilityMetadata:     configuration.TraceabilityMetadata,
		DeferSubscriptionBilling: configuration.DeferSubscriptionBilling,
	})

	environment := taskEnvironment{
		runID:       runID,
		walker:      walker,
		destination: service.dependencies.Destination,
		remapper:    remapper,
		exportSink:  service.dependencies.ExportSink,
		dryRun:      dryRun,
		logger:      logger,
	}
	tasks := buildTasks(configuration, environment, transformer, service.dependencies.Archive)

	executor, executorError := workflow.NewExecutor(tasks, workflow.Dependencies{
		Logger:     logger,
		FailureLog: service.dependencies.FailureLog,
		Clock:      service.dependencies.Clock,
		RunID:      runID,
		DryRun:     dryRun,
	})
	if executorError != nil {
		return workflow.RunReport{}, executorError
	}

	enabledKinds := configuration.Tasks.EnabledKinds()
	if len(options.Only) > 0 {
		enabledKinds = map[billing.ResourceKind]bool{}
		for _, kind := range options.Only {
			enabledKinds[kind] = true
		}
	}
	onlyNames := make([]string, 0, len(options.Only))
	for _, kind := range options.Only {
		onlyNames = append(onlyNames, string(kind))
	}
	logger.Debug(logMessageRunPlannedConstant, zap.Bool(logFieldDryRunConstant, dryRun), zap.Strings(logFieldOnlyConstant, onlyNames))

	return executor.Execute(executionContext, workflow.NewPlan(enabledKinds))
}

// OpenDependencies builds production collaborators from configuration. Dry runs write
// no failure log and open no export sink.
func OpenDependencies(executionContext context.Context, configuration Configuration, credentials utils.Credentials, runID string, dryRun bool, logger *zap.Logger) (ServiceDependencies, error) {
	configuration = configuration.Sanitize()
	if credentialError := credentials.RequireBoth(); credentialError != nil {
		return ServiceDependencies{}, credentialError
	}

	source, sourceError := platform.NewHTTPClient(clientConfiguration(configuration, credentials.SourceSecretKey))
	if sourceError != nil {
		return ServiceDependencies{}, fmt.Errorf(sourceClientErrorTemplate, sourceError)
	}
	destination, destinationError := platform.NewHTTPClient(clientConfiguration(configuration, credentials.DestinationSecretKey))
	if destinationError != nil {
		return ServiceDependencies{}, fmt.Errorf(destinationClientErrorTemplate, destinationError)
	}

	dependencies := ServiceDependencies{Logger: logger, Source: source, Destination: destination, FailureLog: failurelog.Nop{}}

	store, storeError := mapping.OpenStore(executionContext, configuration.Mapping)
	if storeError != nil {
		return ServiceDependencies{}, fmt.Errorf(mappingStoreErrorTemplate, storeError)
	}
	dependencies.Store = store

	if !dryRun && len(configuration.FailureLogPath) > 0 {
		failureLog, failureLogError := failurelog.OpenFile(configuration.FailureLogPath, runID)
		if failureLogError != nil {
			_ = dependencies.Close()
			return ServiceDependencies{}, fmt.Errorf(failureLogErrorTemplate, failureLogError)
		}
		dependencies.FailureLog = failureLog
	}

	if !dryRun {
		sink, sinkError := export.Open(executionContext, configuration.Export)
		if sinkError != nil {
			_ = dependencies.Close()
			return ServiceDependencies{}, fmt.Errorf(exportSinkErrorTemplate, sinkError)
		}
		dependencies.ExportSink = sink
	}

	if len(configuration.Archive.DSN) > 0 {
		writer, writerError := archive.OpenMySQL(configuration.Archive.DSN)
		if writerError != nil {
			_ = dependencies.Close()
			return ServiceDependencies{}, fmt.Errorf(archiveErrorTemplate, writerError)
		}
		invoiceArchive, archiveError := archive.New(writer, configuration.Archive.BatchSize, logger)
		if archiveError != nil {
			_ = dependencies.Close()
			return ServiceDependencies{}, fmt.Errorf(archiveErrorTemplate, archiveError)
		}
		dependencies.Archive = invoiceArchive
	}
	return dependencies, nil
}

// SourceClient builds the source account client alone, for read-only commands.
func SourceClient(configuration Configuration, credentials utils.Credentials) (*platform.HTTPClient, error) {
	if credentialError := credentials.RequireSource(); credentialError != nil {
		return nil, credentialError
	}
	client, clientError := platform.NewHTTPClient(clientConfiguration(configuration.Sanitize(), credentials.SourceSecretKey))
	if clientError != nil {
		return nil, fmt.Errorf(sourceClientErrorTemplate, clientError)
	}
	return client, nil
}

func clientConfiguration(configuration Configuration, secretKey string) platform.HTTPClientConfiguration {
	return platform.HTTPClientConfiguration{
		BaseURL:    configuration.APIBaseURL,
		SecretKey:  secretKey,
		APIVersion: configuration.APIVersion,
		RateLimit:  configuration.RateLimit,
		RateBurst:  configuration.RateBurst,
		Timeout:    configuration.RequestTimeout,
	}
}
