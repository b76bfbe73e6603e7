package mapping

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	// CSVSourceColumn holds the source identifier in mapping imports.
	CSVSourceColumn = "source_id_old"
	// CSVDestinationColumn holds the destination identifier in mapping imports.
	CSVDestinationColumn = "source_id_new"

	missingColumnTemplateConstant = "mapping import requires a %q column"
	emptyInputMessageConstant     = "mapping import input is empty"
	csvRowErrorTemplateConstant   = "mapping import line %d: %w"
	csvReadErrorTemplateConstant  = "mapping import: %w"
	byteOrderMarkConstant         = "\ufeff"
)

// ImportSummary counts the rows of a mapping import.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// ImportCSV reads a header-led CSV of source_id_old,source_id_new pairs into store under
// kind. Rows with a blank cell are skipped; existing mappings are never replaced.
func ImportCSV(executionContext context.Context, store Store, kind billing.ResourceKind, reader io.Reader) (ImportSummary, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, headerError := csvReader.Read()
	if errors.Is(headerError, io.EOF) {
		return ImportSummary{}, errors.New(emptyInputMessageConstant)
	}
	if headerError != nil {
		return ImportSummary{}, fmt.Errorf(csvReadErrorTemplateConstant, headerError)
	}

	sourceColumn, sourceFound := columnIndex(header, CSVSourceColumn)
	if !sourceFound {
		return ImportSummary{}, fmt.Errorf(missingColumnTemplateConstant, CSVSourceColumn)
	}
	destinationColumn, destinationFound := columnIndex(header, CSVDestinationColumn)
	if !destinationFound {
		return ImportSummary{}, fmt.Errorf(missingColumnTemplateConstant, CSVDestinationColumn)
	}

	var summary ImportSummary
	for {
		row, rowError := csvReader.Read()
		if errors.Is(rowError, io.EOF) {
			return summary, nil
		}
		if rowError != nil {
			return summary, fmt.Errorf(csvReadErrorTemplateConstant, rowError)
		}
		lineNumber, _ := csvReader.FieldPos(0)

		sourceID := cell(row, sourceColumn)
		destinationID := cell(row, destinationColumn)
		if len(sourceID) == 0 || len(destinationID) == 0 {
			summary.Skipped++
			continue
		}
		if putError := store.Put(executionContext, kind, sourceID, destinationID); putError != nil {
			return summary, fmt.Errorf(csvRowErrorTemplateConstant, lineNumber, putError)
		}
		summary.Imported++
	}
}

func columnIndex(header []string, name string) (int, bool) {
	for index, column := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(column, byteOrderMarkConstant)), name) {
			return index, true
		}
	}
	return 0, false
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
