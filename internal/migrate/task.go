package migrate

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/mapping"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/policy"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	idempotencyKeyTemplateConstant     = "billmigrate:%s:%s:%s"
	excludedReasonTemplateConstant     = "excluded by %s"
	alreadyMigratedReasonTemplate      = "already migrated as %s"
	loadMappingsErrorTemplateConstant  = "load %s mappings: %w"
	fatalCreateErrorTemplateConstant   = "create %s %s: %w"
	recordMappingErrorTemplateConstant = "record mapping of %s %s: %w"
	logMessageCandidatesConstant       = "Evaluated source records"
	logMessageExportedConstant         = "Exported candidate records"
	logMessageExportSkippedConstant    = "Dry run leaves export artifact untouched"
	logFieldCandidatesConstant         = "candidates"
	logFieldFetchedConstant            = "fetched"
	logFieldArtifactConstant           = "artifact"
	logFieldKindConstant               = "kind"
)

// IdempotencyKey derives the key sent with the create call of one record in one run.
func IdempotencyKey(runID string, kind billing.ResourceKind, sourceID string) string {
	return fmt.Sprintf(idempotencyKeyTemplateConstant, runID, kind.Singular(), sourceID)
}

// taskEnvironment carries the collaborators shared by every task of a run.
type taskEnvironment struct {
	runID       string
	walker      *pagination.Walker
	destination platform.Creator
	remapper    *mapping.Remapper
	exportSink  export.Sink
	dryRun      bool
	logger      *zap.Logger
}

// candidate pairs a decoded record with the bytes it was decoded from.
type candidate[R billing.Record] struct {
	record R
	raw    json.RawMessage
}

// resourceTask migrates one kind through walk, policy, mapping check, transform, create,
// and mapping write-through.
type resourceTask[R billing.Record, P any] struct {
	taskEnvironment
	kind            billing.ResourceKind
	referencedKinds []billing.ResourceKind
	query           pagination.Query
	policy          policy.Policy[R]
	transform       func(R) (P, error)
	exportRecords   bool
}

func (task *resourceTask[R, P]) Kind() billing.ResourceKind {
	return task.kind
}

func (task *resourceTask[R, P]) Run(executionContext context.Context, recorder *workflow.ItemRecorder) error {
	candidates, selectError := selectCandidates(executionContext, task.taskEnvironment, task.kind, task.referencedKinds, task.query, task.policy, task.exportRecords, recorder)
	if selectError != nil {
		return selectError
	}

	for _, selected := range candidates {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		sourceID := selected.record.SourceID()
		if destinationID, mapped := task.remapper.Get(task.kind, sourceID); mapped {
			recorder.Skipped(sourceID, fmt.Sprintf(alreadyMigratedReasonTemplate, destinationID))
			continue
		}

		payload, transformError := task.transform(selected.record)
		if transformError != nil {
			recorder.Failed(sourceID, transformError)
			continue
		}
		if task.dryRun {
			recorder.Succeeded(sourceID, "")
			continue
		}

		created, createError := task.destination.Create(executionContext, task.kind, platform.CreateRequest{
			Payload:        payload,
			IdempotencyKey: IdempotencyKey(task.runID, task.kind, sourceID),
		})
		if createError != nil {
			recorder.Failed(sourceID, createError)
			if platform.IsFatal(createError) {
				return fmt.Errorf(fatalCreateErrorTemplateConstant, task.kind.Singular(), sourceID, createError)
			}
			continue
		}

		if putError := task.remapper.Put(executionContext, task.kind, sourceID, created.ID); putError != nil {
			recorder.Failed(sourceID, putError)
			return fmt.Errorf(recordMappingErrorTemplateConstant, task.kind.Singular(), sourceID, putError)
		}
		recorder.Succeeded(sourceID, created.ID)
	}
	return nil
}

// selectCandidates loads the mappings a kind needs, walks the source collection, and
// returns the records that pass the policy, oldest first. Excluded records are recorded
// as skipped. The candidates are exported before anything is created when requested.
func selectCandidates[R billing.Record](
	executionContext context.Context,
	environment taskEnvironment,
	kind billing.ResourceKind,
	referencedKinds []billing.ResourceKind,
	query pagination.Query,
	recordPolicy policy.Policy[R],
	exportRecords bool,
	recorder *workflow.ItemRecorder,
) ([]candidate[R], error) {
	mappedKinds := append([]billing.ResourceKind{kind}, referencedKinds...)
	if loadError := environment.remapper.Load(executionContext, mappedKinds...); loadError != nil {
		return nil, fmt.Errorf(loadMappingsErrorTemplateConstant, kind, loadError)
	}

	items, walkError := environment.walker.FetchAll(executionContext, kind, query)
	if walkError != nil {
		return nil, walkError
	}
	records, decodeError := pagination.DecodeRecords[R](kind, items)
	if decodeError != nil {
		return nil, decodeError
	}

	candidates := make([]candidate[R], 0, len(records))
	for recordIndex, record := range records {
		decision := recordPolicy.Evaluate(record)
		if !decision.Migrate {
			recorder.Skipped(record.SourceID(), fmt.Sprintf(excludedReasonTemplateConstant, decision.Rule))
			continue
		}
		candidates = append(candidates, candidate[R]{record: record, raw: items[recordIndex]})
	}
	environment.logger.Info(
		logMessageCandidatesConstant,
		zap.String(logFieldKindConstant, string(kind)),
		zap.Int(logFieldFetchedConstant, len(records)),
		zap.Int(logFieldCandidatesConstant, len(candidates)),
	)

	if exportRecords && environment.dryRun {
		environment.logger.Info(logMessageExportSkippedConstant, zap.String(logFieldKindConstant, string(kind)), zap.String(logFieldArtifactConstant, export.ArtifactName(kind)))
		return candidates, nil
	}
	if exportRecords && environment.exportSink != nil {
		rawCandidates := make([]json.RawMessage, 0, len(candidates))
		for _, selected := range candidates {
			rawCandidates = append(rawCandidates, selected.raw)
		}
		if exportError := export.WriteRecords(executionContext, environment.exportSink, kind, rawCandidates); exportError != nil {
			return nil, exportError
		}
		environment.logger.Info(logMessageExportedConstant, zap.String(logFieldKindConstant, string(kind)), zap.String(logFieldArtifactConstant, export.ArtifactName(kind)))
	}
	return candidates, nil
}
