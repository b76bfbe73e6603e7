package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/billmigrate/internal/billing"
)

const (
	artifactNameTemplateConstant       = "%s.json"
	artifactIndentConstant             = "  "
	directoryPermissionsConstant       = 0o755
	filePermissionsConstant            = 0o644
	missingDirectoryMessageConstant    = "export directory is required"
	invalidArtifactNameTemplate        = "invalid artifact name %q"
	writeArtifactErrorTemplateConstant = "write %s artifact: %w"
	readArtifactErrorTemplateConstant  = "read artifact: %w"
)

// Sink stores named artifacts.
type Sink interface {
	Write(executionContext context.Context, name string, content []byte) error
}

// ArtifactName returns the artifact name of kind, e.g. "invoices.json".
func ArtifactName(kind billing.ResourceKind) string {
	return fmt.Sprintf(artifactNameTemplateConstant, kind)
}

// WriteRecords stores records of kind as an indented JSON array. Records are written as
// received so every field survives, including ones the migrator does not model.
func WriteRecords(executionContext context.Context, sink Sink, kind billing.ResourceKind, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	content, encodeError := json.MarshalIndent(records, "", artifactIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(writeArtifactErrorTemplateConstant, kind, encodeError)
	}
	if writeError := sink.Write(executionContext, ArtifactName(kind), content); writeError != nil {
		return fmt.Errorf(writeArtifactErrorTemplateConstant, kind, writeError)
	}
	return nil
}

// ReadRecords decodes an artifact produced by WriteRecords.
func ReadRecords(reader io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if decodeError := json.NewDecoder(reader).Decode(&records); decodeError != nil {
		return nil, fmt.Errorf(readArtifactErrorTemplateConstant, decodeError)
	}
	return records, nil
}

// ReadRecordsFile decodes the artifact stored at path.
func ReadRecordsFile(path string) ([]json.RawMessage, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		return nil, fmt.Errorf(readArtifactErrorTemplateConstant, readError)
	}
	return ReadRecords(bytes.NewReader(content))
}

// DirectorySink writes artifacts as files of one directory.
type DirectorySink struct {
	directory string
}

// NewDirectorySink creates directory when missing.
func NewDirectorySink(directory string) (*DirectorySink, error) {
	trimmedDirectory := strings.TrimSpace(directory)
	if len(trimmedDirectory) == 0 {
		return nil, errors.New(missingDirectoryMessageConstant)
	}
	if mkdirError := os.MkdirAll(trimmedDirectory, directoryPermissionsConstant); mkdirError != nil {
		return nil, mkdirError
	}
	return &DirectorySink{directory: trimmedDirectory}, nil
}

// Path returns the file an artifact name is written to.
func (sink *DirectorySink) Path(name string) string {
	return filepath.Join(sink.directory, name)
}

// Write replaces the artifact file.
func (sink *DirectorySink) Write(_ context.Context, name string, content []byte) error {
	if len(name) == 0 || filepath.Base(name) != name {
		return fmt.Errorf(invalidArtifactNameTemplate, name)
	}
	return os.WriteFile(sink.Path(name), content, filePermissionsConstant)
}

// MultiSink writes every artifact to each of its sinks and reports all failures.
type MultiSink []Sink

// Write delegates to every sink.
func (sinks MultiSink) Write(executionContext context.Context, name string, content []byte) error {
	var writeErrors []error
	for _, sink := range sinks {
		if writeError := sink.Write(executionContext, name, content); writeError != nil {
			writeErrors = append(writeErrors, writeError)
		}
	}
	return errors.Join(writeErrors...)
}
