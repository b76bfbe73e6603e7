package failurelog

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/billmigrate/internal/billing"
	"github.com/temirov/billmigrate/internal/utils"
)

const (
	fieldRunIdentifierConstant  = "run_id"
	fieldKindConstant           = "kind"
	fieldSourceIdentifierConst  = "source_id"
	fieldErrorConstant          = "error"
	fieldTimestampConstant      = "timestamp"
	fileFlagsConstant           = os.O_APPEND | os.O_CREATE | os.O_WRONLY
	filePermissionConstant      = 0o644
	directoryPermissionConstant = 0o755
	missingPathMessageConstant  = "failure log requires a path"
	unknownFailureMessage       = "unknown failure"
)

// Entry is one line of the failure log.
type Entry struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	SourceID  string `json:"source_id"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Log receives item-level failures for manual remediation.
type Log interface {
	Append(kind billing.ResourceKind, sourceID string, cause error)
	Close() error
}

// JSONLinesLog appends one JSON object per failure.
type JSONLinesLog struct {
	logger *zap.Logger
	closer io.Closer
}

// OpenFile opens path in append mode, creating it and its directory when missing.
func OpenFile(path string, runID string) (*JSONLinesLog, error) {
	if len(path) == 0 {
		return nil, errors.New(missingPathMessageConstant)
	}
	if mkdirError := os.MkdirAll(filepath.Dir(path), directoryPermissionConstant); mkdirError != nil {
		return nil, mkdirError
	}
	file, openError := os.OpenFile(path, fileFlagsConstant, filePermissionConstant)
	if openError != nil {
		return nil, openError
	}
	log := newLog(utils.NewDurableWriter(file, true), runID)
	log.closer = file
	return log, nil
}

// NewWriterLog writes failures to writer.
func NewWriterLog(writer io.Writer, runID string) *JSONLinesLog {
	return newLog(utils.NewDurableWriter(writer, false), runID)
}

func newLog(writer io.Writer, runID string) *JSONLinesLog {
	encoderConfiguration := zapcore.EncoderConfig{
		TimeKey:        fieldTimestampConstant,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfiguration),
		zapcore.AddSync(writer),
		zapcore.DebugLevel,
	)
	logger := zap.New(core).With(zap.String(fieldRunIdentifierConstant, runID))
	return &JSONLinesLog{logger: logger}
}

// Append writes a failure line.
func (log *JSONLinesLog) Append(kind billing.ResourceKind, sourceID string, cause error) {
	message := unknownFailureMessage
	if cause != nil {
		message = cause.Error()
	}
	log.logger.Error(
		"",
		zap.String(fieldKindConstant, string(kind)),
		zap.String(fieldSourceIdentifierConst, sourceID),
		zap.String(fieldErrorConstant, message),
	)
}

// Close flushes the encoder and closes the underlying file, if any.
func (log *JSONLinesLog) Close() error {
	_ = log.logger.Sync()
	if log.closer == nil {
		return nil
	}
	return log.closer.Close()
}

// Nop discards every failure.
type Nop struct{}

// Append does nothing.
func (Nop) Append(billing.ResourceKind, string, error) {}

// Close does nothing.
func (Nop) Close() error { return nil }
