package inventory

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/policy"
)

const (
	missingWalkerMessageConstant = "inventory requires a walker"
	logMessageKindCountedConst   = "Counted source records"
	logMessageKindFailedConstant = "Unable to count source records"
	logFieldKindConstant         = "kind"
	logFieldFetchedConstant      = "fetched"
	logFieldCandidatesConstant   = "candidates"
)

// Source describes how one kind is walked and which of its records would migrate.
type Source struct {
	Kind     billing.ResourceKind
	Query    pagination.Query
	evaluate func(items []json.RawMessage) (int, error)
}

// NewSource binds kind to the policy deciding its candidates.
func NewSource[R billing.Record](kind billing.ResourceKind, query pagination.Query, recordPolicy policy.Policy[R]) Source {
	return Source{
		Kind:  kind,
		Query: query,
		evaluate: func(items []json.RawMessage) (int, error) {
			records, decodeError := pagination.DecodeRecords[R](kind, items)
			if decodeError != nil {
				return 0, decodeError
			}
			candidates := 0
			for _, record := range records {
				if recordPolicy.ShouldMigrate(record) {
					candidates++
				}
			}
			return candidates, nil
		},
	}
}

// Entry is the count of one kind. Error is set when the kind could not be walked.
type Entry struct {
	Kind       billing.ResourceKind `json:"kind" yaml:"kind"`
	Fetched    int                  `json:"fetched" yaml:"fetched"`
	Candidates int                  `json:"candidates" yaml:"candidates"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report lists the counted kinds in the order they were requested.
type Report struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Totals sums the fetched and candidate counts over every entry.
func (report Report) Totals() (fetched int, candidates int) {
	for _, entry := range report.Entries {
		fetched += entry.Fetched
		candidates += entry.Candidates
	}
	return fetched, candidates
}

// Failed reports whether any kind could not be counted.
func (report Report) Failed() bool {
	for _, entry := range report.Entries {
		if len(entry.Error) > 0 {
			return true
		}
	}
	return false
}

// Counter walks sources and counts their records.
type Counter struct {
	walker *pagination.Walker
	logger *zap.Logger
}

// NewCounter builds a Counter.
func NewCounter(walker *pagination.Walker, logger *zap.Logger) (*Counter, error) {
	if walker == nil {
		return nil, errors.New(missingWalkerMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{walker: walker, logger: logger}, nil
}

// Count walks every source. A failing kind is recorded in its entry and counting moves on;
// cancellation stops the count.
func (counter *Counter) Count(executionContext context.Context, sources []Source) (Report, error) {
	report := Report{Entries: make([]Entry, 0, len(sources))}
	for _, source := range sources {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}
		entry := Entry{Kind: source.Kind}
		kindField := zap.String(logFieldKindConstant, string(source.Kind))

		items, walkError := counter.walker.FetchAll(executionContext, source.Kind, source.Query)
		if walkError != nil {
			if errors.Is(walkError, context.Canceled) || errors.Is(walkError, context.DeadlineExceeded) {
				return report, walkError
			}
			entry.Error = walkError.Error()
			counter.logger.Warn(logMessageKindFailedConstant, kindField, zap.Error(walkError))
			report.Entries = append(report.Entries, entry)
			continue
		}
		entry.Fetched = len(items)

		candidates, evaluateError := source.evaluate(items)
		if evaluateError != nil {
			entry.Error = evaluateError.Error()
			counter.logger.Warn(logMessageKindFailedConstant, kindField, zap.Error(evaluateError))
			report.Entries = append(report.Entries, entry)
			continue
		}
		entry.Candidates = candidates

		counter.logger.Info(logMessageKindCountedConst, kindField, zap.Int(logFieldFetchedConstant, entry.Fetched), zap.Int(logFieldCandidatesConstant, entry.Candidates))
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}
