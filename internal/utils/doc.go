// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper backed ConfigurationLoader, the zap LoggerFactory, the
// godotenv CredentialLoader, struct validation, and the DurableWriter used by the
// failure log.
package utils
