package workflow

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	reportFormatTableConstant           = "table"
	reportFormatYAMLConstant            = "yaml"
	reportFormatJSONConstant            = "json"
	unsupportedReportFormatTemplate     = "unsupported report format: %s"
	reportJSONIndentConstant            = "  "
	reportHeaderTaskConstant            = "Task"
	reportHeaderStateConstant           = "State"
	reportHeaderSucceededConstant       = "Succeeded"
	reportHeaderFailedConstant          = "Failed"
	reportHeaderSkippedConstant         = "Skipped"
	reportHeaderDurationConstant        = "Duration"
	reportHeaderSourceConstant          = "Source ID"
	reportHeaderReasonConstant          = "Reason"
	reportHeaderWarningConstant         = "Warning"
	reportRunLineTemplateConstant       = "Run %s%s\n"
	reportDryRunSuffixConstant          = " (dry run)"
	reportTaskErrorLineTemplateConstant = "%s aborted: %s\n"
	reportFailuresTitleTemplateConstant = "Failed %s"
)

// TaskState is the lifecycle state of a task.
type TaskState string

// Task states.
const (
	TaskStatePending   TaskState = "pending"
	TaskStateRunning   TaskState = "running"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateDisabled  TaskState = "disabled"
)

// TaskReport summarizes one task.
type TaskReport struct {
	Kind     billing.ResourceKind `json:"kind" yaml:"kind"`
	State    TaskState            `json:"state" yaml:"state"`
	Counts   ItemCounts           `json:"counts" yaml:"counts"`
	Duration time.Duration        `json:"duration_ns" yaml:"duration"`
	Error    string               `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Items    []ItemResult         `json:"items,omitempty" yaml:"items,omitempty"`
}

// Failures returns the failed items of the task.
func (taskReport TaskReport) Failures() []ItemResult {
	var failures []ItemResult
	for _, item := range taskReport.Items {
		if item.Status == ItemStatusFailed {
			failures = append(failures, item)
		}
	}
	return failures
}

// RunReport summarizes a migration run.
type RunReport struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	DryRun     bool         `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Warnings   []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Tasks      []TaskReport `json:"tasks" yaml:"tasks"`
}

// Failed reports whether any task was aborted.
func (report RunReport) Failed() bool {
	for _, taskReport := range report.Tasks {
		if taskReport.State == TaskStateFailed {
			return true
		}
	}
	return false
}

// Task returns the report of kind.
func (report RunReport) Task(kind billing.ResourceKind) (TaskReport, bool) {
	for _, taskReport := range report.Tasks {
		if taskReport.Kind == kind {
			return taskReport, true
		}
	}
	return TaskReport{}, false
}

// ReportFormat selects the report encoding.
type ReportFormat string

// Report formats.
const (
	ReportFormatTable ReportFormat = ReportFormat(reportFormatTableConstant)
	ReportFormatYAML  ReportFormat = ReportFormat(reportFormatYAMLConstant)
	ReportFormatJSON  ReportFormat = ReportFormat(reportFormatJSONConstant)
)

// ParseReportFormat resolves a user supplied format name.
func ParseReportFormat(value string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(value))) {
	case ReportFormatTable, "":
		return ReportFormatTable, nil
	case ReportFormatYAML:
		return ReportFormatYAML, nil
	case ReportFormatJSON:
		return ReportFormatJSON, nil
	default:
		return "", fmt.Errorf(unsupportedReportFormatTemplate, value)
	}
}

// RenderReport writes report to writer in format.
func RenderReport(writer io.Writer, report RunReport, format ReportFormat) error {
	switch format {
	case ReportFormatTable, "":
		return renderReportTable(writer, report)
	case ReportFormatYAML:
		encoder := yaml.NewEncoder(writer)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	case ReportFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", reportJSONIndentConstant)
		return encoder.Encode(report)
	default:
		return fmt.Errorf(unsupportedReportFormatTemplate, format)
	}
}

func renderReportTable(writer io.Writer, report RunReport) error {
	dryRunSuffix := ""
	if report.DryRun {
		dryRunSuffix = reportDryRunSuffixConstant
	}
	if _, writeError := fmt.Fprintf(writer, reportRunLineTemplateConstant, report.RunID, dryRunSuffix); writeError != nil {
		return writeError
	}

	summary := table.NewWriter()
	summary.SetOutputMirror(writer)
	summary.AppendHeader(table.Row{reportHeaderTaskConstant, reportHeaderStateConstant, reportHeaderSucceededConstant, reportHeaderFailedConstant, reportHeaderSkippedConstant, reportHeaderDurationConstant})
	for _, taskReport := range report.Tasks {
		summary.AppendRow(table.Row{
			taskReport.Kind,
			taskReport.State,
			taskReport.Counts.Succeeded,
			taskReport.Counts.Failed,
			taskReport.Counts.Skipped,
			taskReport.Duration,
		})
	}
	summary.Render()

	for _, taskReport := range report.Tasks {
		if len(taskReport.Error) > 0 {
			if _, writeError := fmt.Fprintf(writer, reportTaskErrorLineTemplateConstant, taskReport.Kind, taskReport.Error); writeError != nil {
				return writeError
			}
		}
		failures := taskReport.Failures()
		if len(failures) == 0 {
			continue
		}
		failureTable := table.NewWriter()
		failureTable.SetOutputMirror(writer)
		failureTable.SetTitle(fmt.Sprintf(reportFailuresTitleTemplateConstant, taskReport.Kind))
		failureTable.AppendHeader(table.Row{reportHeaderSourceConstant, reportHeaderReasonConstant})
		for _, failure := range failures {
			failureTable.AppendRow(table.Row{failure.SourceID, failure.Reason})
		}
		failureTable.Render()
	}

	var warnings []string
	warnings = append(warnings, report.Warnings...)
	for _, taskReport := range report.Tasks {
		warnings = append(warnings, taskReport.Warnings...)
	}
	if len(warnings) > 0 {
		warningTable := table.NewWriter()
		warningTable.SetOutputMirror(writer)
		warningTable.AppendHeader(table.Row{reportHeaderWarningConstant})
		for _, warning := range warnings {
			warningTable.AppendRow(table.Row{warning})
		}
		warningTable.Render()
	}
	return nil
}
