package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes from concurrent producers and flushes
// buffered destinations after every write so tool output appears immediately.
type FlushingWriter struct {
	writer       io.Writer
	mutex        sync.Mutex
	bytesWritten int64
}

// NewFlushingWriter wraps writer unless it is already a FlushingWriter.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if existingWriter, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return existingWriter
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the wrapped writer and flushes it when supported.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return len(data), nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	written, writeError := flushingWriter.writer.Write(data)
	flushingWriter.bytesWritten += int64(written)
	if writeError != nil {
		return written, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(flusher); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return written, flushError
		}
	}

	return written, nil
}

// BytesWritten reports how many bytes reached the wrapped writer.
func (flushingWriter *FlushingWriter) BytesWritten() int64 {
	if flushingWriter == nil {
		return 0
	}
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()
	return flushingWriter.bytesWritten
}
