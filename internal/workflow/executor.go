package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/failurelog"
)

const (
	duplicateTaskTemplateConstant     = "task for %s registered more than once"
	nilTaskMessageConstant            = "workflow executor received a nil task"
	missingTaskTemplateConstant       = "no task registered for %s"
	logMessageRunStartedConstant      = "Migration run started"
	logMessageRunFinishedConstant     = "Migration run finished"
	logMessageTaskStartedConstant     = "Task started"
	logMessageTaskFinishedConstant    = "Task finished"
	logMessageTaskFailedConstant      = "Task aborted"
	logMessageTaskDisabledConstant    = "Task disabled"
	logMessageDependencyWarningConst  = "Dependency not satisfied"
	logFieldRunIdentifierConstant     = "run_id"
	logFieldSucceededConstant         = "succeeded"
	logFieldFailedConstant            = "failed"
	logFieldSkippedConstant           = "skipped"
	logFieldDurationConstant          = "duration"
	logFieldWarningConstant           = "warning"
	logFieldEnabledTasksCountConstant = "enabled_tasks"
)

// Dependencies configures the collaborators shared by every task of a run.
type Dependencies struct {
	Logger     *zap.Logger
	FailureLog failurelog.Log
	Clock      clock.Clock
	// RunID identifies the run in reports and the failure log. Generated when empty.
	RunID  string
	DryRun bool
}

// Executor runs tasks one at a time in plan order.
type Executor struct {
	tasks        map[billing.ResourceKind]Task
	dependencies Dependencies
}

// NewExecutor registers tasks by kind.
func NewExecutor(tasks []Task, dependencies Dependencies) (*Executor, error) {
	registered := make(map[billing.ResourceKind]Task, len(tasks))
	for _, task := range tasks {
		if task == nil {
			return nil, errors.New(nilTaskMessageConstant)
		}
		if _, duplicate := registered[task.Kind()]; duplicate {
			return nil, fmt.Errorf(duplicateTaskTemplateConstant, task.Kind())
		}
		registered[task.Kind()] = task
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
	if len(dependencies.RunID) == 0 {
		dependencies.RunID = uuid.NewString()
	}
	return &Executor{tasks: registered, dependencies: dependencies}, nil
}

// RunID returns the identifier of runs started by this executor.
func (executor *Executor) RunID() string {
	return executor.dependencies.RunID
}

// Execute runs every enabled task of plan in order. An invalid plan is rejected before
// any task starts. A task error marks that task failed and the run moves on; item
// failures never fail a task. Cancellation fails the remaining tasks without running them.
func (executor *Executor) Execute(executionContext context.Context, plan Plan) (RunReport, error) {
	if validationError := plan.Validate(); validationError != nil {
		return RunReport{}, validationError
	}

	logger := executor.dependencies.Logger.With(zap.String(logFieldRunIdentifierConstant, executor.dependencies.RunID))
	report := RunReport{
		RunID:     executor.dependencies.RunID,
		DryRun:    executor.dependencies.DryRun,
		StartedAt: executor.dependencies.Clock.Now().UTC(),
		Warnings:  plan.UnsatisfiedDependencies(),
	}
	for _, warning := range report.Warnings {
		logger.Warn(logMessageDependencyWarningConst, zap.String(logFieldWarningConstant, warning))
	}
	logger.Info(logMessageRunStartedConstant, zap.Int(logFieldEnabledTasksCountConstant, len(plan.EnabledKinds())))

	states := make(map[billing.ResourceKind]TaskState, len(plan.descriptors))
	for _, descriptor := range plan.descriptors {
		states[descriptor.Kind] = TaskStatePending
	}

	for _, descriptor := range plan.descriptors {
		taskReport := TaskReport{Kind: descriptor.Kind, State: TaskStatePending}
		if !descriptor.Enabled {
			taskReport.State = TaskStateDisabled
			states[descriptor.Kind] = TaskStateDisabled
			logger.Debug(logMessageTaskDisabledConstant, zap.String(logFieldKindConstant, string(descriptor.Kind)))
			report.Tasks = append(report.Tasks, taskReport)
			continue
		}

		for _, dependency := range descriptor.Dependencies {
			if dependencyState := states[dependency]; dependencyState == TaskStateFailed {
				warning := fmt.Sprintf(dependencyWarningNotCompletedTemplate, descriptor.Kind, dependency, dependencyState)
				taskReport.Warnings = append(taskReport.Warnings, warning)
				logger.Warn(logMessageDependencyWarningConst, zap.String(logFieldWarningConstant, warning))
			}
		}

		taskReport = executor.runTask(executionContext, logger, descriptor, taskReport)
		states[descriptor.Kind] = taskReport.State
		report.Tasks = append(report.Tasks, taskReport)
	}

	report.FinishedAt = executor.dependencies.Clock.Now().UTC()
	logger.Info(logMessageRunFinishedConstant, zap.Bool(logFieldFailedConstant, report.Failed()))
	return report, nil
}

func (executor *Executor) runTask(executionContext context.Context, logger *zap.Logger, descriptor TaskDescriptor, taskReport TaskReport) TaskReport {
	kindField := zap.String(logFieldKindConstant, string(descriptor.Kind))

	if contextError := executionContext.Err(); contextError != nil {
		taskReport.State = TaskStateFailed
		taskReport.Error = contextError.Error()
		logger.Error(logMessageTaskFailedConstant, kindField, zap.Error(contextError))
		return taskReport
	}

	task, registered := executor.tasks[descriptor.Kind]
	if !registered {
		missingError := fmt.Errorf(missingTaskTemplateConstant, descriptor.Kind)
		taskReport.State = TaskStateFailed
		taskReport.Error = missingError.Error()
		logger.Error(logMessageTaskFailedConstant, kindField, zap.Error(missingError))
		return taskReport
	}

	recorder := NewItemRecorder(descriptor.Kind, executor.dependencies.FailureLog, logger)
	taskReport.State = TaskStateRunning
	startedAt := executor.dependencies.Clock.Now()
	logger.Info(logMessageTaskStartedConstant, kindField)

	runError := task.Run(executionContext, recorder)

	taskReport.Duration = executor.dependencies.Clock.Now().Sub(startedAt).Round(time.Millisecond)
	taskReport.Counts = recorder.Counts()
	taskReport.Items = recorder.Results()
	if runError != nil {
		taskReport.State = TaskStateFailed
		taskReport.Error = runError.Error()
		logger.Error(logMessageTaskFailedConstant, kindField, zap.Error(runError))
		return taskReport
	}

	taskReport.State = TaskStateCompleted
	logger.Info(
		logMessageTaskFinishedConstant,
		kindField,
		zap.Int(logFieldSucceededConstant, taskReport.Counts.Succeeded),
		zap.Int(logFieldFailedConstant, taskReport.Counts.Failed),
		zap.Int(logFieldSkippedConstant, taskReport.Counts.Skipped),
		zap.Duration(logFieldDurationConstant, taskReport.Duration),
	)
	return taskReport
}
