package maintenance_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/billmigrate/internal/archive"
	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/maintenance"
	"github.com/temirov/billmigrate/internal/mapping"
	"github.com/temirov/billmigrate/internal/migrate"
)

const (
	maintenanceSubtestNameTemplateConstant = "%d_%s"
	testArchiveDSNConstant                 = "archive:secret@tcp(localhost:3306)/billing"
	testInvoicesFileNameConstant           = "invoices.json"
	testMappingFileNameConstant            = "customers.csv"
	testInvoicesContentConstant            = `[
  {"id": "in_1", "status": "paid", "total": 1000, "currency": "usd", "customer": "cus_1", "paid": true, "created": 1700000000},
  {"id": "in_2", "status": "paid", "total": 2500, "currency": "usd", "customer": {"id": "cus_2", "object": "customer"}, "paid": true, "created": 1700000100},
  {"id": "in_3", "status": "open", "total": 700, "currency": "eur", "customer": "cus_3", "paid": false, "created": 1700000200}
]`
	testMappingContentConstant = "source_id_old,source_id_new\ncus_a,cus_x\ncus_b,\ncus_c,cus_z\n"
)

type recordingArchiveWriter struct {
	dsn        string
	batches    [][]archive.InvoiceRecord
	failOnCall map[int]error
}

func (writer *recordingArchiveWriter) InsertInvoices(_ context.Context, records []archive.InvoiceRecord) error {
	callIndex := len(writer.batches)
	writer.batches = append(writer.batches, append([]archive.InvoiceRecord(nil), records...))
	if failure, failing := writer.failOnCall[callIndex]; failing {
		return failure
	}
	return nil
}

type maintenanceHarness struct {
	store         *mapping.MemoryStore
	writer        *recordingArchiveWriter
	configuration migrate.Configuration
	logs          *observer.ObservedLogs
	output        *bytes.Buffer
}

func newMaintenanceHarness() *maintenanceHarness {
	configuration := migrate.DefaultConfigurationValues()
	configuration.Archive.DSN = testArchiveDSNConstant
	configuration.Archive.BatchSize = 2
	return &maintenanceHarness{
		store:         mapping.NewMemoryStore(),
		writer:        &recordingArchiveWriter{},
		configuration: configuration,
		output:        &bytes.Buffer{},
	}
}

func (harness *maintenanceHarness) execute(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	core, logs := observer.New(zap.InfoLevel)
	harness.logs = logs
	builder := maintenance.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.New(core) },
		ConfigurationProvider: func() migrate.Configuration { return harness.configuration },
		StoreProvider: func(context.Context, mapping.StoreConfiguration) (mapping.Store, error) {
			return harness.store, nil
		},
		ArchiveWriterProvider: func(dsn string) (archive.Writer, error) {
			harness.writer.dsn = dsn
			return harness.writer, nil
		},
	}
	commands, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	root := &cobra.Command{Use: "billmigrate", SilenceErrors: true, SilenceUsage: true}
	root.AddCommand(commands...)
	root.SetOut(harness.output)
	root.SetErr(harness.output)
	root.SetArgs(arguments)
	return root.ExecuteContext(context.Background())
}

func writeFixture(testInstance *testing.T, name string, content string) string {
	testInstance.Helper()
	path := filepath.Join(testInstance.TempDir(), name)
	require.NoError(testInstance, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMappingImportLoadsCSV(testInstance *testing.T) {
	harness := newMaintenanceHarness()
	path := writeFixture(testInstance, testMappingFileNameConstant, testMappingContentConstant)

	require.NoError(testInstance, harness.execute(testInstance, "mapping", "import", "--kind", "customers", "--file", path))

	mappings, loadError := harness.store.Load(context.Background(), billing.ResourceKindCustomer)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, map[string]string{"cus_a": "cus_x", "cus_c": "cus_z"}, mappings)
	require.Contains(testInstance, harness.output.String(), "Imported 2 customer mapping(s), skipped 1")
	require.Equal(testInstance, 1, harness.logs.FilterMessage("Mapping import completed").Len())
}

func TestMappingImportRejectsInvalidInvocations(testInstance *testing.T) {
	validPath := writeFixture(testInstance, testMappingFileNameConstant, testMappingContentConstant)

	testCases := []struct {
		name          string
		arguments     []string
		expectedError string
	}{
		{name: "missing kind", arguments: []string{"mapping", "import", "--file", validPath}, expectedError: "--kind is required"},
		{name: "unknown kind", arguments: []string{"mapping", "import", "--kind", "widgets", "--file", validPath}, expectedError: "widgets"},
		{name: "missing file", arguments: []string{"mapping", "import", "--kind", "customers"}, expectedError: "--file is required"},
		{name: "unreadable file", arguments: []string{"mapping", "import", "--kind", "customers", "--file", filepath.Join(testInstance.TempDir(), "absent.csv")}, expectedError: "absent.csv"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(maintenanceSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			harness := newMaintenanceHarness()
			executeError := harness.execute(subtest, testCase.arguments...)
			require.Error(subtest, executeError)
			require.Contains(subtest, executeError.Error(), testCase.expectedError)

			mappings, loadError := harness.store.Load(context.Background(), billing.ResourceKindCustomer)
			require.NoError(subtest, loadError)
			require.Empty(subtest, mappings)
		})
	}
}

func TestArchiveImportLoadsExport(testInstance *testing.T) {
	harness := newMaintenanceHarness()
	path := writeFixture(testInstance, testInvoicesFileNameConstant, testInvoicesContentConstant)

	require.NoError(testInstance, harness.execute(testInstance, "archive", "import", "--file", path))

	require.Equal(testInstance, testArchiveDSNConstant, harness.writer.dsn)
	require.Len(testInstance, harness.writer.batches, 2)
	require.Len(testInstance, harness.writer.batches[0], 2)
	first := harness.writer.batches[0][0]
	require.Equal(testInstance, "in_1", first.SourceID)
	require.Equal(testInstance, "cus_1", first.CustomerID)
	require.Equal(testInstance, int64(1000), first.Total)
	require.Contains(testInstance, first.Raw, `"in_1"`)
	require.Equal(testInstance, "cus_2", harness.writer.batches[0][1].CustomerID)
	require.Equal(testInstance, "in_3", harness.writer.batches[1][0].SourceID)
	require.Contains(testInstance, harness.output.String(), "Archived 3 invoice(s), 0 failed")
}

func TestArchiveImportReportsFailedBatches(testInstance *testing.T) {
	harness := newMaintenanceHarness()
	harness.writer.failOnCall = map[int]error{0: errors.New("duplicate entry")}
	path := writeFixture(testInstance, testInvoicesFileNameConstant, testInvoicesContentConstant)

	executeError := harness.execute(testInstance, "archive", "import", "--file", path)
	require.EqualError(testInstance, executeError, "2 invoice(s) could not be archived")
	require.Contains(testInstance, harness.output.String(), "Archived 1 invoice(s), 2 failed")
	require.Equal(testInstance, 1, harness.logs.FilterMessage("Invoices not archived").Len())
}

func TestArchiveImportRejectsMalformedExport(testInstance *testing.T) {
	harness := newMaintenanceHarness()
	path := writeFixture(testInstance, testInvoicesFileNameConstant, `{"id": "in_1"}`)

	require.Error(testInstance, harness.execute(testInstance, "archive", "import", "--file", path))
	require.Empty(testInstance, harness.writer.batches)
}

func TestArchiveImportRequiresDSNWithoutProvider(testInstance *testing.T) {
	configuration := migrate.DefaultConfigurationValues()
	builder := maintenance.CommandBuilder{ConfigurationProvider: func() migrate.Configuration { return configuration }}
	commands, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	root := &cobra.Command{Use: "billmigrate", SilenceErrors: true, SilenceUsage: true}
	root.AddCommand(commands...)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"archive", "import", "--file", writeFixture(testInstance, testInvoicesFileNameConstant, testInvoicesContentConstant)})

	executeError := root.ExecuteContext(context.Background())
	require.Error(testInstance, executeError)
	require.Contains(testInstance, executeError.Error(), "archive.dsn")
}
