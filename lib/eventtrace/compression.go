// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtrace

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Compression identifies the compression applied to a trace file.
type Compression int

const (
	// CompressionNone writes plain CBOR.
	CompressionNone Compression = iota

	// CompressionZstd is zstd at the default level. Event payloads are
	// repetitive JSON-shaped data, which zstd compresses well.
	CompressionZstd

	// CompressionLZ4 is the LZ4 frame format, for when trace writing
	// must cost as little CPU as possible.
	CompressionLZ4
)

func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(compression))
	}
}

// CompressionForPath selects the compression for a trace file from its
// suffix.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}
