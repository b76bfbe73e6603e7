package inventory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/inventory"
	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/pagination"
	"github.com/temirov/billmigrate/internal/platform"
	"github.com/temirov/billmigrate/internal/platform/testsupport"
	"github.com/temirov/billmigrate/internal/workflow"
)

const (
	inventorySubtestNameTemplateConstant = "%d_%s"
	inventoryCompletedMessageConstant    = "Inventory completed"
)

func seededPlatform(testInstance *testing.T) *testsupport.PlatformStub {
	stub := testsupport.NewPlatformStub()
	require.NoError(testInstance, stub.AddRecords(billing.ResourceKindProduct,
		map[string]any{"id": "prod_3", "name": "Gold", "active": true},
		map[string]any{"id": "prod_2", "name": "Silver", "active": false},
		map[string]any{"id": "prod_1", "name": "Bronze", "active": true},
	))
	require.NoError(testInstance, stub.AddRecords(billing.ResourceKindSubscription,
		map[string]any{"id": "sub_2", "status": "canceled", "customer": "cus_2"},
		map[string]any{"id": "sub_1", "status": "active", "customer": "cus_1"},
	))
	return stub
}

func tasksWithActiveProducts() migrate.TasksConfiguration {
	tasks := migrate.DefaultConfigurationValues().Tasks
	tasks.Products.ActiveOnly = true
	return tasks
}

func TestCountReportsFetchedAndCandidates(testInstance *testing.T) {
	stub := seededPlatform(testInstance)
	walker, walkerError := pagination.NewWalker(stub, 2, nil)
	require.NoError(testInstance, walkerError)
	counter, counterError := inventory.NewCounter(walker, nil)
	require.NoError(testInstance, counterError)

	report, countError := counter.Count(context.Background(), inventory.Sources(tasksWithActiveProducts(), []billing.ResourceKind{billing.ResourceKindProduct, billing.ResourceKindSubscription}))
	require.NoError(testInstance, countError)

	require.Equal(testInstance, []inventory.Entry{
		{Kind: billing.ResourceKindProduct, Fetched: 3, Candidates: 2},
		{Kind: billing.ResourceKindSubscription, Fetched: 2, Candidates: 1},
	}, report.Entries)
	fetched, candidates := report.Totals()
	require.Equal(testInstance, 5, fetched)
	require.Equal(testInstance, 3, candidates)
	require.False(testInstance, report.Failed())
	require.Len(testInstance, stub.ListRequests[billing.ResourceKindProduct], 2)
}

func TestCountIsolatesFailingKinds(testInstance *testing.T) {
	stub := seededPlatform(testInstance)
	stub.ListErrors[billing.ResourceKindProduct] = map[int]error{
		0: platform.APIError{Operation: platform.OperationList, Kind: billing.ResourceKindProduct, StatusCode: 500},
	}
	walker, walkerError := pagination.NewWalker(stub, 10, nil)
	require.NoError(testInstance, walkerError)
	counter, counterError := inventory.NewCounter(walker, nil)
	require.NoError(testInstance, counterError)

	report, countError := counter.Count(context.Background(), inventory.Sources(tasksWithActiveProducts(), []billing.ResourceKind{billing.ResourceKindProduct, billing.ResourceKindSubscription}))
	require.NoError(testInstance, countError)

	require.True(testInstance, report.Failed())
	require.NotEmpty(testInstance, report.Entries[0].Error)
	require.Equal(testInstance, 2, report.Entries[1].Fetched)
}

func TestCountStopsOnCancellation(testInstance *testing.T) {
	walker, walkerError := pagination.NewWalker(seededPlatform(testInstance), 10, nil)
	require.NoError(testInstance, walkerError)
	counter, counterError := inventory.NewCounter(walker, nil)
	require.NoError(testInstance, counterError)
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, countError := counter.Count(cancelledContext, inventory.Sources(tasksWithActiveProducts(), nil))
	require.True(testInstance, errors.Is(countError, context.Canceled))
}

func TestSourcesDefaultToEveryMigratableKind(testInstance *testing.T) {
	sources := inventory.Sources(migrate.DefaultConfigurationValues().Tasks, nil)
	require.Len(testInstance, sources, len(billing.MigratableResourceKinds()))
	for sourceIndex, source := range sources {
		require.Equal(testInstance, billing.MigratableResourceKinds()[sourceIndex], source.Kind)
	}
	invoiceSource := sources[len(sources)-1]
	require.Equal(testInstance, `status:"paid" AND total>0`, invoiceSource.Query.Search)

	require.Empty(testInstance, inventory.Sources(migrate.DefaultConfigurationValues().Tasks, []billing.ResourceKind{billing.ResourceKindCustomer}))
}

func TestNewCounterRequiresWalker(testInstance *testing.T) {
	_, counterError := inventory.NewCounter(nil, nil)
	require.Error(testInstance, counterError)
}

func TestRenderReportFormats(testInstance *testing.T) {
	report := inventory.Report{Entries: []inventory.Entry{{Kind: billing.ResourceKindPrice, Fetched: 4, Candidates: 3}}}
	testCases := []struct {
		name     string
		format   workflow.ReportFormat
		expected string
	}{
		{name: "table", format: workflow.ReportFormatTable, expected: "CANDIDATES"},
		{name: "yaml", format: workflow.ReportFormatYAML, expected: "candidates: 3"},
		{name: "json", format: workflow.ReportFormatJSON, expected: `"fetched": 4`},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(inventorySubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			var output bytes.Buffer
			require.NoError(subtest, inventory.RenderReport(&output, report, testCase.format))
			require.Contains(subtest, output.String(), testCase.expected)
		})
	}

	require.Error(testInstance, inventory.RenderReport(&bytes.Buffer{}, report, workflow.ReportFormat("xml")))
}

func TestInventoryCommand(testInstance *testing.T) {
	stub := seededPlatform(testInstance)
	core, observedLogs := observer.New(zapcore.InfoLevel)
	configuration := migrate.DefaultConfigurationValues()
	configuration.Tasks = tasksWithActiveProducts()
	builder := inventory.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.New(core) },
		ConfigurationProvider: func() migrate.Configuration { return configuration },
		ListerProvider: func(context.Context, migrate.Configuration) (platform.Lister, error) {
			return stub, nil
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"--only", "products,subscriptions", "--report-format", "json"})

	require.NoError(testInstance, command.Execute())

	var report inventory.Report
	require.NoError(testInstance, json.Unmarshal(output.Bytes(), &report))
	require.Len(testInstance, report.Entries, 2)
	require.Equal(testInstance, 2, report.Entries[0].Candidates)
	require.Equal(testInstance, 1, observedLogs.FilterMessage(inventoryCompletedMessageConstant).Len())
	require.Empty(testInstance, stub.ListRequests[billing.ResourceKindInvoice])
}
