package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/billmigrate/internal/migrate"
	"github.com/temirov/billmigrate/internal/utils"
)

const (
	cliSubtestNameTemplateConstant    = "%d_%s"
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = `common:
  log_level: debug
  log_format: console
migrate:
  page_size: 25
  dry_run: true
  tasks:
    invoices:
      enabled: false
`
)

func newTestApplication(testInstance *testing.T) *Application {
	testInstance.Helper()
	application, buildError := NewApplication()
	require.NoError(testInstance, buildError)
	return application
}

func leafCommand(testInstance *testing.T, application *Application, path ...string) *cobra.Command {
	testInstance.Helper()
	command, _, findError := application.rootCommand.Find(path)
	require.NoError(testInstance, findError)
	return command
}

func TestEmbeddedDefaultsMatchConfigurationDefaults(testInstance *testing.T) {
	testInstance.Chdir(testInstance.TempDir())
	application := newTestApplication(testInstance)

	require.NoError(testInstance, application.initializeConfiguration(leafCommand(testInstance, application, "migrate")))

	require.Equal(testInstance, migrate.DefaultConfigurationValues().Sanitize(), application.configuration.Migrate)
	require.Equal(testInstance, string(utils.LogLevelInfo), application.configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatStructured), application.configuration.Common.LogFormat)
}

func TestConfigurationFileAndEnvironmentOverrideDefaults(testInstance *testing.T) {
	testInstance.Chdir(testInstance.TempDir())
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))
	testInstance.Setenv("BILLMIGRATE_MIGRATE_RATE_LIMIT", "5")
	testInstance.Setenv("BILLMIGRATE_MIGRATE_EXPORT_KINDS", "invoices")

	application := newTestApplication(testInstance)
	application.configurationFilePath = configurationPath
	command := leafCommand(testInstance, application, "inventory")

	require.NoError(testInstance, application.initializeConfiguration(command))

	configuration := application.configuration.Migrate
	require.Equal(testInstance, 25, configuration.PageSize)
	require.True(testInstance, configuration.DryRun)
	require.False(testInstance, configuration.Tasks.Invoices.Enabled)
	require.True(testInstance, configuration.Tasks.Products.Enabled)
	require.Equal(testInstance, 5.0, configuration.RateLimit)
	require.Equal(testInstance, []string{"invoices"}, configuration.Export.Kinds)
	require.Equal(testInstance, configurationPath, application.configurationMetadata.ConfigFileUsed)

	accessor := utils.NewCommandContextAccessor()
	logLevel, available := accessor.LogLevel(command.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, string(utils.LogLevelDebug), logLevel)
	configurationFile, available := accessor.ConfigurationFilePath(command.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, configurationPath, configurationFile)
}

func TestInitializeConfigurationRejectsInvalidSettings(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
		expected    string
	}{
		{name: "log level", environment: map[string]string{"BILLMIGRATE_COMMON_LOG_LEVEL": "verbose"}, expected: "verbose"},
		{name: "log format", environment: map[string]string{"BILLMIGRATE_COMMON_LOG_FORMAT": "xml"}, expected: "xml"},
		{name: "page size", environment: map[string]string{"BILLMIGRATE_MIGRATE_PAGE_SIZE": "500"}, expected: "PageSize"},
		{name: "mapping backend", environment: map[string]string{"BILLMIGRATE_MIGRATE_MAPPING_BACKEND": "postgres"}, expected: "Backend"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(cliSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			subtest.Chdir(subtest.TempDir())
			for name, value := range testCase.environment {
				subtest.Setenv(name, value)
			}
			application := newTestApplication(subtest)

			initializationError := application.initializeConfiguration(leafCommand(subtest, application, "migrate"))
			require.Error(subtest, initializationError)
			require.Contains(subtest, initializationError.Error(), testCase.expected)
		})
	}
}

func TestLogFlagsOverrideConfiguration(testInstance *testing.T) {
	testInstance.Chdir(testInstance.TempDir())
	application := newTestApplication(testInstance)
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "warn"))
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, "console"))

	require.NoError(testInstance, application.initializeConfiguration(leafCommand(testInstance, application, "cutover", "pause")))
	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)
}

func TestMissingExplicitConfigurationFileFails(testInstance *testing.T) {
	application := newTestApplication(testInstance)
	application.configurationFilePath = filepath.Join(testInstance.TempDir(), "absent.yaml")
	require.Error(testInstance, application.initializeConfiguration(leafCommand(testInstance, application, "migrate")))
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := newTestApplication(testInstance)

	var names []string
	for _, command := range application.rootCommand.Commands() {
		names = append(names, command.Name())
	}
	sort.Strings(names)
	require.Subset(testInstance, names, []string{"archive", "cutover", "inventory", "mapping", "migrate"})

	for _, path := range [][]string{{"cutover", "pause"}, {"cutover", "resume"}, {"mapping", "import"}, {"archive", "import"}} {
		require.Equal(testInstance, path[len(path)-1], leafCommand(testInstance, application, path...).Name())
	}
}

func TestVersionFlagPrintsVersion(testInstance *testing.T) {
	application := newTestApplication(testInstance)
	output := &bytes.Buffer{}
	application.rootCommand.SetOut(output)
	application.rootCommand.SetArgs([]string{"--version"})

	require.NoError(testInstance, application.Execute())
	require.Contains(testInstance, output.String(), "billmigrate version: ")
}
