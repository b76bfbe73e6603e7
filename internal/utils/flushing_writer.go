package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// DurableWriter serializes writes and pushes every write past any buffering layer so a
// crash mid-run never loses an already recorded line. Buffered writers are flushed;
// files are synced to stable storage when SyncEachWrite is set.
type DurableWriter struct {
	writer        io.Writer
	syncEachWrite bool
	mutex         sync.Mutex
}

// NewDurableWriter wraps writer. Wrapping a DurableWriter returns it unchanged.
func NewDurableWriter(writer io.Writer, syncEachWrite bool) io.Writer {
	if writer == nil {
		return nil
	}
	if existing, alreadyWrapped := writer.(*DurableWriter); alreadyWrapped {
		return existing
	}
	return &DurableWriter{writer: writer, syncEachWrite: syncEachWrite}
}

// Write delegates to the wrapped writer, then flushes and optionally syncs it.
func (durableWriter *DurableWriter) Write(data []byte) (int, error) {
	if durableWriter == nil || durableWriter.writer == nil {
		return 0, nil
	}

	durableWriter.mutex.Lock()
	defer durableWriter.mutex.Unlock()

	bytesWritten, writeError := durableWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushableWriter, flushable := durableWriter.writer.(flusher); flushable {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	if !durableWriter.syncEachWrite {
		return bytesWritten, nil
	}
	if syncableWriter, syncable := durableWriter.writer.(syncer); syncable {
		if syncError := syncableWriter.Sync(); syncError != nil {
			return bytesWritten, syncError
		}
	}
	return bytesWritten, nil
}
