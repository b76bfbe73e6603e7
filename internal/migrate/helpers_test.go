package migrate_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/temirov/billmigrate/internal/archive"
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/export"
	"github.com/temirov/billmigrate/internal/failurelog"
	"github.com/temirov/billmigrate/internal/mapping"
	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/platform/testsupport"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	migrateSubtestNameTemplateConstant = "%d_%s"
	testRunIdentifierConstant          = "run-test"
)

var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type migrationFixture struct {
	platform   *testsupport.PlatformStub
	store      *mapping.MemoryStore
	failures   *bytes.Buffer
	exportSink export.Sink
	archive    *archive.Archive
}

func newMigrationFixture() *migrationFixture {
	return &migrationFixture{
		platform: testsupport.NewPlatformStub(),
		store:    mapping.NewMemoryStore(),
		failures: &bytes.Buffer{},
	}
}

func (fixture *migrationFixture) dependencies() migrate.ServiceDependencies {
	return migrate.ServiceDependencies{
		Source:      fixture.platform,
		Destination: fixture.platform,
		Store:       fixture.store,
		FailureLog:  failurelog.NewWriterLog(fixture.failures, testRunIdentifierConstant),
		ExportSink:  fixture.exportSink,
		Archive:     fixture.archive,
		Clock:       testclock.NewClock(testNow),
	}
}

func (fixture *migrationFixture) service(testInstance *testing.T) *migrate.Service {
	service, serviceError := migrate.NewService(fixture.dependencies())
	require.NoError(testInstance, serviceError)
	return service
}

// addOldestFirst stores records the way the remote lists them, newest first.
func (fixture *migrationFixture) addOldestFirst(testInstance *testing.T, kind billing.ResourceKind, records ...any) {
	for recordIndex := len(records) - 1; recordIndex >= 0; recordIndex-- {
		require.NoError(testInstance, fixture.platform.AddRecords(kind, records[recordIndex]))
	}
}

func (fixture *migrationFixture) run(testInstance *testing.T, configuration migrate.Configuration, options migrate.RunOptions) workflow.RunReport {
	if len(options.RunID) == 0 {
		options.RunID = testRunIdentifierConstant
	}
	report, runError := fixture.service(testInstance).Run(context.Background(), configuration, options)
	require.NoError(testInstance, runError)
	return report
}

func requireTask(testInstance *testing.T, report workflow.RunReport, kind billing.ResourceKind) workflow.TaskReport {
	taskReport, found := report.Task(kind)
	require.True(testInstance, found, "missing task report for %s", kind)
	return taskReport
}

// baseConfiguration disables every kind and every export so tests opt in explicitly.
func baseConfiguration() migrate.Configuration {
	configuration := migrate.DefaultConfigurationValues()
	configuration.Tasks = migrate.TasksConfiguration{}
	configuration.Export = export.Configuration{}
	configuration.DeferSubscriptionBilling = false
	return configuration
}

func productRecord(index int) map[string]any {
	return map[string]any{
		"id":     fmt.Sprintf("prod_%d", index),
		"name":   fmt.Sprintf("Plan %d", index),
		"active": true,
	}
}

func productRecords(count int) []any {
	records := make([]any, 0, count)
	for recordIndex := 1; recordIndex <= count; recordIndex++ {
		records = append(records, productRecord(recordIndex))
	}
	return records
}

func priceRecord(identifier string, product string) map[string]any {
	return map[string]any{
		"id":          identifier,
		"active":      true,
		"currency":    "usd",
		"product":     product,
		"type":        "recurring",
		"unit_amount": 1500,
		"recurring":   map[string]any{"interval": "month", "interval_count": 1},
	}
}

func subscriptionRecord(identifier string, status string, price string) map[string]any {
	return map[string]any{
		"id":       identifier,
		"status":   status,
		"customer": "cus_" + identifier,
		"items": map[string]any{
			"data": []any{map[string]any{"id": "si_" + identifier, "price": map[string]any{"id": price}, "quantity": 1}},
		},
	}
}

func invoiceRecord(identifier string, status string, total int64) map[string]any {
	return map[string]any{
		"id":       identifier,
		"status":   status,
		"total":    total,
		"currency": "usd",
		"customer": "cus_1",
		"paid":     status == "paid",
		"created":  testNow.Add(-time.Hour).Unix(),
		"lines":    map[string]any{"data": []any{}},
	}
}
