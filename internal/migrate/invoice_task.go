package migrate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/billmigrate/internal/archive"
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/policy"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	archiveImportErrorTemplateConstant = "archive invoices: %w"
	logMessageArchivedConstant         = "Archived invoices"
	logFieldArchivedConstant           = "archived"
	logFieldArchiveFailuresConstant    = "failed"
	missingInvoiceDestinationMessage   = "invoices need an export artifact or an archive: enable export for invoices or set archive.dsn"
)

// invoiceTask moves invoices into the export artifact and, when configured, the archive.
// Invoices are never recreated on the destination account; an archived invoice is mapped
// to its own identifier so re-runs skip it.
type invoiceTask struct {
	taskEnvironment
	query         pagination.Query
	policy        policy.Policy[billing.Invoice]
	exportRecords bool
	archive       *archive.Archive
}

func newInvoiceTask(environment taskEnvironment, configuration InvoiceTaskConfiguration, exportRecords bool, invoiceArchive *archive.Archive) *invoiceTask {
	search, filters := policy.InvoiceQuery(configuration.InvoiceConfiguration)
	return &invoiceTask{
		taskEnvironment: environment,
		query:           pagination.Query{Search: search, Filters: filters},
		policy:          policy.InvoicePolicy(configuration.InvoiceConfiguration),
		exportRecords:   exportRecords,
		archive:         invoiceArchive,
	}
}

func (task *invoiceTask) Kind() billing.ResourceKind {
	return billing.ResourceKindInvoice
}

func (task *invoiceTask) Run(executionContext context.Context, recorder *workflow.ItemRecorder) error {
	if task.archive == nil && !task.exportRecords {
		return errors.New(missingInvoiceDestinationMessage)
	}
	candidates, selectError := selectCandidates(executionContext, task.taskEnvironment, billing.ResourceKindInvoice, nil, task.query, task.policy, task.exportRecords, recorder)
	if selectError != nil {
		return selectError
	}

	if task.archive == nil {
		for _, selected := range candidates {
			recorder.Succeeded(selected.record.ID, "")
		}
		return nil
	}

	pending := make([]archive.InvoiceRecord, 0, len(candidates))
	for _, selected := range candidates {
		sourceID := selected.record.ID
		if destinationID, mapped := task.remapper.Get(billing.ResourceKindInvoice, sourceID); mapped {
			recorder.Skipped(sourceID, fmt.Sprintf(alreadyMigratedReasonTemplate, destinationID))
			continue
		}
		if task.dryRun {
			recorder.Succeeded(sourceID, "")
			continue
		}
		pending = append(pending, archive.NewInvoiceRecord(selected.record, selected.raw))
	}
	if len(pending) == 0 {
		return nil
	}

	summary, importError := task.archive.Import(executionContext, pending)
	if importError != nil {
		return fmt.Errorf(archiveImportErrorTemplateConstant, importError)
	}
	for _, failure := range summary.Failures {
		for _, sourceID := range failure.SourceIDs {
			recorder.Failed(sourceID, failure.Cause)
		}
	}
	for _, sourceID := range summary.Imported {
		if putError := task.remapper.Put(executionContext, billing.ResourceKindInvoice, sourceID, sourceID); putError != nil {
			recorder.Failed(sourceID, putError)
			return fmt.Errorf(recordMappingErrorTemplateConstant, billing.ResourceKindInvoice.Singular(), sourceID, putError)
		}
		recorder.Succeeded(sourceID, sourceID)
	}
	task.logger.Info(logMessageArchivedConstant, zap.Int(logFieldArchivedConstant, len(summary.Imported)), zap.Int(logFieldArchiveFailuresConstant, len(summary.Failures)))
	return nil
}
