package export

import (
	"context"
	"strings"

	"github.com/juju/collections/set"

	"github.com/temirov/billmigrate/internal/billing"
)

// Configuration selects where artifacts go and which kinds are dumped. An empty Kinds
// list dumps nothing.
type Configuration struct {
	Directory string          `mapstructure:"directory" yaml:"directory"`
	Kinds     []string        `mapstructure:"kinds" yaml:"kinds"`
	S3        S3Configuration `mapstructure:"s3" yaml:"s3"`
}

// Enabled reports whether kind is dumped.
func (configuration Configuration) Enabled(kind billing.ResourceKind) bool {
	if !configuration.hasDestination() {
		return false
	}
	enabledKinds := set.NewStrings()
	for _, configuredKind := range configuration.Kinds {
		parsedKind, parseError := billing.ParseResourceKind(configuredKind)
		if parseError != nil {
			continue
		}
		enabledKinds.Add(string(parsedKind))
	}
	return enabledKinds.Contains(string(kind))
}

func (configuration Configuration) hasDestination() bool {
	return len(strings.TrimSpace(configuration.Directory)) > 0 || len(strings.TrimSpace(configuration.S3.Bucket)) > 0
}

// Open builds the configured sink. It returns nil when neither a directory nor a bucket
// is configured.
func Open(executionContext context.Context, configuration Configuration) (Sink, error) {
	var sinks MultiSink
	if len(strings.TrimSpace(configuration.Directory)) > 0 {
		directorySink, directoryError := NewDirectorySink(configuration.Directory)
		if directoryError != nil {
			return nil, directoryError
		}
		sinks = append(sinks, directorySink)
	}
	if len(strings.TrimSpace(configuration.S3.Bucket)) > 0 {
		bucketSink, bucketError := OpenS3Sink(executionContext, configuration.S3)
		if bucketError != nil {
			return nil, bucketError
		}
		sinks = append(sinks, bucketSink)
	}
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
