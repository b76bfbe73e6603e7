package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// SourceSecretKeyEnvironmentVariable holds the secret key of the source account.
	SourceSecretKeyEnvironmentVariable = "SOURCE_STRIPE_SECRET_KEY"
	// DestinationSecretKeyEnvironmentVariable holds the secret key of the destination account.
	DestinationSecretKeyEnvironmentVariable = "DESTINATION_STRIPE_SECRET_KEY"
	// DefaultEnvironmentFile is read when present.
	DefaultEnvironmentFile = ".env"

	environmentFileReadErrorTemplate = "unable to read environment file %s: %w"
	missingCredentialTemplate        = "missing credential %s"
)

// Credentials are the secret keys of both accounts.
type Credentials struct {
	SourceSecretKey      string
	DestinationSecretKey string
}

// RequireSource fails when the source key is absent.
func (credentials Credentials) RequireSource() error {
	if len(credentials.SourceSecretKey) == 0 {
		return fmt.Errorf(missingCredentialTemplate, SourceSecretKeyEnvironmentVariable)
	}
	return nil
}

// RequireBoth fails when either key is absent.
func (credentials Credentials) RequireBoth() error {
	var missing []error
	if sourceError := credentials.RequireSource(); sourceError != nil {
		missing = append(missing, sourceError)
	}
	if len(credentials.DestinationSecretKey) == 0 {
		missing = append(missing, fmt.Errorf(missingCredentialTemplate, DestinationSecretKeyEnvironmentVariable))
	}
	return errors.Join(missing...)
}

// CredentialLoader resolves account keys from the process environment, falling back to
// an environment file. Process variables win over file entries.
type CredentialLoader struct {
	EnvironmentFiles  []string
	LookupEnvironment func(key string) (string, bool)
}

// NewCredentialLoader builds a loader reading DefaultEnvironmentFile.
func NewCredentialLoader() *CredentialLoader {
	return &CredentialLoader{
		EnvironmentFiles:  []string{DefaultEnvironmentFile},
		LookupEnvironment: os.LookupEnv,
	}
}

// Load reads the credentials. Missing environment files are ignored.
func (loader *CredentialLoader) Load() (Credentials, error) {
	fileValues := map[string]string{}
	for _, environmentFile := range loader.EnvironmentFiles {
		trimmedPath := strings.TrimSpace(environmentFile)
		if len(trimmedPath) == 0 {
			continue
		}
		values, readError := godotenv.Read(trimmedPath)
		if readError != nil {
			if errors.Is(readError, os.ErrNotExist) {
				continue
			}
			return Credentials{}, fmt.Errorf(environmentFileReadErrorTemplate, trimmedPath, readError)
		}
		for key, value := range values {
			if _, exists := fileValues[key]; !exists {
				fileValues[key] = value
			}
		}
	}

	lookup := loader.LookupEnvironment
	if lookup == nil {
		lookup = os.LookupEnv
	}
	resolve := func(key string) string {
		if value, present := lookup(key); present && len(strings.TrimSpace(value)) > 0 {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	}

	return Credentials{
		SourceSecretKey:      resolve(SourceSecretKeyEnvironmentVariable),
		DestinationSecretKey: resolve(DestinationSecretKeyEnvironmentVariable),
	}, nil
}
