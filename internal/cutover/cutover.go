package cutover

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/failurelog"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/policy"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	pauseBehaviorMarkUncollectibleConstant = "mark_uncollectible"
	alreadyPausedReasonConstant            = "collection already paused"
	notPausedReasonConstant                = "collection not paused"
	excludedReasonTemplateConstant         = "excluded by %s"
	fatalUpdateErrorTemplateConstant       = "%s subscription %s: %w"
	unknownActionTemplateConstant          = "unknown cutover action: %s"
	missingUpdaterMessageConstant          = "cutover requires an updater"
	negativeWindowMessageConstant          = "offset and limit must not be negative"
	logMessageCutoverStartedConstant       = "Cutover started"
	logFieldActionConstant                 = "action"
	logFieldSelectedConstant               = "selected"
)

// Action is the change applied to each subscription.
type Action string

// Cutover actions.
const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
)

// ParseAction resolves an action name.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionPause:
		return ActionPause, nil
	case ActionResume:
		return ActionResume, nil
	default:
		return "", fmt.Errorf(unknownActionTemplateConstant, value)
	}
}

// Window selects a contiguous slice of the input so a large cutover can be split
// across invocations. A zero Limit selects everything after Offset.
type Window struct {
	Offset int
	Limit  int
}

// Validate rejects negative bounds.
func (window Window) Validate() error {
	if window.Offset < 0 || window.Limit < 0 {
		return errors.New(negativeWindowMessageConstant)
	}
	return nil
}

// Apply returns the selected subscriptions.
func (window Window) Apply(subscriptions []billing.Subscription) []billing.Subscription {
	if window.Offset >= len(subscriptions) {
		return nil
	}
	selected := subscriptions[window.Offset:]
	if window.Limit > 0 && window.Limit < len(selected) {
		selected = selected[:window.Limit]
	}
	return selected
}

// Dependencies configures a Runner.
type Dependencies struct {
	Updater    platform.Updater
	FailureLog failurelog.Log
	Logger     *zap.Logger
	// Policy excludes subscriptions that must not be touched, such as canceled ones.
	Policy policy.Policy[billing.Subscription]
	// LiveState marks subscriptions that were just listed from the account. Only then is
	// their pause state trusted to skip no-op updates; exported records predate the pause.
	LiveState bool
	DryRun    bool
}

// Runner applies an action to source subscriptions one at a time.
type Runner struct {
	dependencies Dependencies
}

// NewRunner validates dependencies.
func NewRunner(dependencies Dependencies) (*Runner, error) {
	if dependencies.Updater == nil {
		return nil, errors.New(missingUpdaterMessageConstant)
	}
	if dependencies.FailureLog == nil {
		dependencies.FailureLog = failurelog.Nop{}
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Runner{dependencies: dependencies}, nil
}

// Run applies action to every subscription. A rejected update is recorded and the run
// moves on; fatal errors stop it and mark the report failed.
func (runner *Runner) Run(executionContext context.Context, action Action, subscriptions []billing.Subscription) workflow.TaskReport {
	recorder := workflow.NewItemRecorder(billing.ResourceKindSubscription, runner.dependencies.FailureLog, runner.dependencies.Logger)
	runner.dependencies.Logger.Info(logMessageCutoverStartedConstant, zap.String(logFieldActionConstant, string(action)), zap.Int(logFieldSelectedConstant, len(subscriptions)))

	taskReport := workflow.TaskReport{Kind: billing.ResourceKindSubscription, State: workflow.TaskStateCompleted}
	if runError := runner.apply(executionContext, action, subscriptions, recorder); runError != nil {
		taskReport.State = workflow.TaskStateFailed
		taskReport.Error = runError.Error()
	}
	taskReport.Counts = recorder.Counts()
	taskReport.Items = recorder.Results()
	return taskReport
}

func (runner *Runner) apply(executionContext context.Context, action Action, subscriptions []billing.Subscription, recorder *workflow.ItemRecorder) error {
	var payload any
	switch action {
	case ActionPause:
		payload = billing.SubscriptionPauseParams{PauseCollection: &billing.PauseCollectionParams{Behavior: pauseBehaviorMarkUncollectibleConstant}}
	case ActionResume:
		cleared := ""
		payload = billing.SubscriptionResumeParams{PauseCollection: &cleared}
	default:
		return fmt.Errorf(unknownActionTemplateConstant, action)
	}

	for _, subscription := range subscriptions {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if decision := runner.dependencies.Policy.Evaluate(subscription); !decision.Migrate {
			recorder.Skipped(subscription.ID, fmt.Sprintf(excludedReasonTemplateConstant, decision.Rule))
			continue
		}
		if runner.dependencies.LiveState {
			paused := subscription.PauseCollection != nil
			if action == ActionPause && paused {
				recorder.Skipped(subscription.ID, alreadyPausedReasonConstant)
				continue
			}
			if action == ActionResume && !paused {
				recorder.Skipped(subscription.ID, notPausedReasonConstant)
				continue
			}
		}
		if runner.dependencies.DryRun {
			recorder.Succeeded(subscription.ID, "")
			continue
		}

		updated, updateError := runner.dependencies.Updater.Update(executionContext, billing.ResourceKindSubscription, subscription.ID, payload)
		if updateError != nil {
			recorder.Failed(subscription.ID, updateError)
			if platform.IsFatal(updateError) {
				return fmt.Errorf(fatalUpdateErrorTemplateConstant, action, subscription.ID, updateError)
			}
			continue
		}
		recorder.Succeeded(subscription.ID, updated.ID)
	}
	return nil
}
