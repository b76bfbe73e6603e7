package utils_test

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/billmigrate/internal/utils"
)

type recordingSyncWriter struct {
	bytes.Buffer
	syncCalls int
	syncError error
}

func (writer *recordingSyncWriter) Sync() error {
	writer.syncCalls++
	return writer.syncError
}

func TestDurableWriterFlushesBufferedWriter(testInstance *testing.T) {
	var target bytes.Buffer
	buffered := bufio.NewWriter(&target)
	writer := utils.NewDurableWriter(buffered, false)

	_, writeError := writer.Write([]byte("line\n"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "line\n", target.String())
}

func TestDurableWriterSyncsOnlyWhenRequested(testInstance *testing.T) {
	unsynced := &recordingSyncWriter{}
	_, writeError := utils.NewDurableWriter(unsynced, false).Write([]byte("a"))
	require.NoError(testInstance, writeError)
	require.Zero(testInstance, unsynced.syncCalls)

	synced := &recordingSyncWriter{}
	writer := utils.NewDurableWriter(synced, true)
	_, writeError = writer.Write([]byte("a"))
	require.NoError(testInstance, writeError)
	_, writeError = writer.Write([]byte("b"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 2, synced.syncCalls)
	require.Equal(testInstance, "ab", synced.String())
}

func TestDurableWriterReportsSyncFailure(testInstance *testing.T) {
	failing := &recordingSyncWriter{syncError: errors.New("disk gone")}
	bytesWritten, writeError := utils.NewDurableWriter(failing, true).Write([]byte("abc"))
	require.EqualError(testInstance, writeError, "disk gone")
	require.Equal(testInstance, 3, bytesWritten)
}

func TestNewDurableWriterDoesNotDoubleWrap(testInstance *testing.T) {
	require.Nil(testInstance, utils.NewDurableWriter(nil, true))
	first := utils.NewDurableWriter(&bytes.Buffer{}, false)
	require.Same(testInstance, first, utils.NewDurableWriter(first, true))
}
