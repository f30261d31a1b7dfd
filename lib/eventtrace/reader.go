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

	"github.com/bureau-foundation/buildwatch/lib/codec"
)

// Reader reads records back from a trace.
type Reader struct {
	file    io.Closer
	zstd    *zstd.Decoder
	decoder *codec.Decoder
}

// Open opens the trace file at path, decompressing as its suffix
// selects.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	reader, err := NewReader(file, CompressionForPath(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.file = file
	return reader, nil
}

// NewReader reads a trace from r.
func NewReader(r io.Reader, compression Compression) (*Reader, error) {
	reader := &Reader{}
	source := io.Reader(bufio.NewReader(r))
	switch compression {
	case CompressionNone:
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		reader.zstd = decoder
		source = decoder
	case CompressionLZ4:
		source = lz4.NewReader(source)
	default:
		return nil, fmt.Errorf("unsupported trace compression %v", compression)
	}
	reader.decoder = codec.NewDecoder(source)
	return reader, nil
}

// Next returns the next record, or io.EOF after the last one.
func (reader *Reader) Next() (Record, error) {
	var record Record
	if err := reader.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("reading trace record: %w", err)
	}
	return record, nil
}

// Close releases the decompressor and closes the file when the reader
// was created with Open.
func (reader *Reader) Close() error {
	if reader.zstd != nil {
		reader.zstd.Close()
	}
	if reader.file != nil {
		return reader.file.Close()
	}
	return nil
}
