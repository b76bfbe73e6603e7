package inventory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	headerKindConstant        = "Kind"
	headerFetchedConstant     = "Fetched"
	headerCandidatesConstant  = "Candidates"
	headerErrorConstant       = "Error"
	footerTotalConstant       = "Total"
	jsonIndentConstant        = "  "
	unsupportedFormatTemplate = "unsupported report format: %s"
)

// RenderReport writes report to writer in format.
func RenderReport(writer io.Writer, report Report, format workflow.ReportFormat) error {
	switch format {
	case workflow.ReportFormatTable, "":
		renderTable(writer, report)
		return nil
	case workflow.ReportFormatYAML:
		encoder := yaml.NewEncoder(writer)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	case workflow.ReportFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		return encoder.Encode(report)
	default:
		return fmt.Errorf(unsupportedFormatTemplate, format)
	}
}

func renderTable(writer io.Writer, report Report) {
	counts := table.NewWriter()
	counts.SetOutputMirror(writer)
	counts.AppendHeader(table.Row{headerKindConstant, headerFetchedConstant, headerCandidatesConstant, headerErrorConstant})
	for _, entry := range report.Entries {
		counts.AppendRow(table.Row{entry.Kind, entry.Fetched, entry.Candidates, entry.Error})
	}
	fetched, candidates := report.Totals()
	counts.AppendFooter(table.Row{footerTotalConstant, fetched, candidates, ""})
	counts.Render()
}
