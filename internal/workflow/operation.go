package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/failurelog"
)

const (
	itemErrorTemplateConstant          = "%s %s: %v"
	logMessageItemSucceededConstant    = "Migrated record"
	logMessageItemFailedConstant       = "Record migration failed"
	logMessageItemSkippedConstant      = "Skipped record"
	logFieldKindConstant               = "kind"
	logFieldSourceIdentifierConstant   = "source_id"
	logFieldDestinationIdentifierConst = "destination_id"
	logFieldReasonConstant             = "reason"
)

// Task migrates every record of one resource kind. A returned error is fatal to the
// task; item failures are reported through the recorder instead.
type Task interface {
	Kind() billing.ResourceKind
	Run(executionContext context.Context, recorder *ItemRecorder) error
}

// ItemStatus is the terminal state of one record within a task.
type ItemStatus string

// Item statuses.
const (
	ItemStatusSucceeded ItemStatus = "succeeded"
	ItemStatusFailed    ItemStatus = "failed"
	ItemStatusSkipped   ItemStatus = "skipped"
)

// ItemResult is the outcome of one record.
type ItemResult struct {
	SourceID      string     `json:"source_id" yaml:"source_id"`
	DestinationID string     `json:"destination_id,omitempty" yaml:"destination_id,omitempty"`
	Status        ItemStatus `json:"status" yaml:"status"`
	Reason        string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ItemError reports the failure of one record.
type ItemError struct {
	Kind     billing.ResourceKind
	SourceID string
	Cause    error
}

// Error describes the failure.
func (itemError ItemError) Error() string {
	return fmt.Sprintf(itemErrorTemplateConstant, itemError.Kind.Singular(), itemError.SourceID, itemError.Cause)
}

// Unwrap exposes the underlying cause.
func (itemError ItemError) Unwrap() error {
	return itemError.Cause
}

// ItemCounts aggregates item outcomes.
type ItemCounts struct {
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Total returns the number of recorded items.
func (counts ItemCounts) Total() int {
	return counts.Succeeded + counts.Failed + counts.Skipped
}

// ItemRecorder collects item outcomes for one task and forwards failures to the
// failure log.
type ItemRecorder struct {
	kind       billing.ResourceKind
	failureLog failurelog.Log
	logger     *zap.Logger

	mutex   sync.Mutex
	results []ItemResult
	counts  ItemCounts
}

// NewItemRecorder builds a recorder for kind.
func NewItemRecorder(kind billing.ResourceKind, failureLog failurelog.Log, logger *zap.Logger) *ItemRecorder {
	if failureLog == nil {
		failureLog = failurelog.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemRecorder{kind: kind, failureLog: failureLog, logger: logger}
}

// Kind returns the recorded resource kind.
func (recorder *ItemRecorder) Kind() billing.ResourceKind {
	return recorder.kind
}

// Succeeded records a migrated record.
func (recorder *ItemRecorder) Succeeded(sourceID string, destinationID string) {
	recorder.append(ItemResult{SourceID: sourceID, DestinationID: destinationID, Status: ItemStatusSucceeded})
	recorder.logger.Info(
		logMessageItemSucceededConstant,
		zap.String(logFieldKindConstant, string(recorder.kind)),
		zap.String(logFieldSourceIdentifierConstant, sourceID),
		zap.String(logFieldDestinationIdentifierConst, destinationID),
	)
}

// Failed records a failed record and appends it to the failure log.
func (recorder *ItemRecorder) Failed(sourceID string, cause error) {
	itemError := ItemError{Kind: recorder.kind, SourceID: sourceID, Cause: cause}
	recorder.append(ItemResult{SourceID: sourceID, Status: ItemStatusFailed, Reason: fmt.Sprint(cause)})
	recorder.failureLog.Append(recorder.kind, sourceID, cause)
	recorder.logger.Warn(
		logMessageItemFailedConstant,
		zap.String(logFieldKindConstant, string(recorder.kind)),
		zap.String(logFieldSourceIdentifierConstant, sourceID),
		zap.Error(itemError),
	)
}

// Skipped records a record that was deliberately not migrated.
func (recorder *ItemRecorder) Skipped(sourceID string, reason string) {
	recorder.append(ItemResult{SourceID: sourceID, Status: ItemStatusSkipped, Reason: reason})
	recorder.logger.Debug(
		logMessageItemSkippedConstant,
		zap.String(logFieldKindConstant, string(recorder.kind)),
		zap.String(logFieldSourceIdentifierConstant, sourceID),
		zap.String(logFieldReasonConstant, reason),
	)
}

func (recorder *ItemRecorder) append(result ItemResult) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.results = append(recorder.results, result)
	switch result.Status {
	case ItemStatusSucceeded:
		recorder.counts.Succeeded++
	case ItemStatusFailed:
		recorder.counts.Failed++
	case ItemStatusSkipped:
		recorder.counts.Skipped++
	}
}

// Results returns the outcomes in recording order.
func (recorder *ItemRecorder) Results() []ItemResult {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return append([]ItemResult(nil), recorder.results...)
}

// Counts returns the aggregated outcomes.
func (recorder *ItemRecorder) Counts() ItemCounts {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return recorder.counts
}
