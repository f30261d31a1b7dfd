// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtrace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/codec"
)

// Recorder appends events to a trace. Not safe for concurrent use.
type Recorder struct {
	file       io.Closer
	buffer     *bufio.Writer
	compressor io.WriteCloser
	encoder    *codec.Encoder
	sequence   uint64
}

// Create creates (or truncates) the trace file at path, compressed as
// its suffix selects.
func Create(path string) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	recorder, err := NewRecorder(file, CompressionForPath(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	recorder.file = file
	return recorder, nil
}

// NewRecorder writes a trace to w. Close flushes the trace but does not
// close w.
func NewRecorder(w io.Writer, compression Compression) (*Recorder, error) {
	recorder := &Recorder{buffer: bufio.NewWriter(w)}

	var sink io.Writer = recorder.buffer
	switch compression {
	case CompressionNone:
	case CompressionZstd:
		encoder, err := zstd.NewWriter(recorder.buffer, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		recorder.compressor = encoder
		sink = encoder
	case CompressionLZ4:
		writer := lz4.NewWriter(recorder.buffer)
		recorder.compressor = writer
		sink = writer
	default:
		return nil, fmt.Errorf("unsupported trace compression %v", compression)
	}

	recorder.encoder = codec.NewEncoder(sink)
	return recorder, nil
}

// Record appends one event.
func (recorder *Recorder) Record(event buildevent.Event) error {
	recorder.sequence++
	if err := recorder.encoder.Encode(NewRecord(recorder.sequence, event)); err != nil {
		return fmt.Errorf("writing trace record %d: %w", recorder.sequence, err)
	}
	return nil
}

// Count returns the number of records written.
func (recorder *Recorder) Count() uint64 {
	return recorder.sequence
}

// Close finishes the compressed stream, flushes buffered output, and
// closes the file when the recorder was created with Create.
func (recorder *Recorder) Close() error {
	var errs []error
	if recorder.compressor != nil {
		if err := recorder.compressor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("finishing compressed trace: %w", err))
		}
	}
	if err := recorder.buffer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flushing trace: %w", err))
	}
	if recorder.file != nil {
		if err := recorder.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing trace file: %w", err))
		}
	}
	return errors.Join(errs...)
}
