// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides buildwatch's standard CBOR encoding
// configuration.
//
// buildwatch reads JSON (the build tool's event stream) and writes CBOR
// only for its own diagnostic files, the event trace. This package
// holds the shared encoding and decoding modes so every writer and
// reader agrees on them. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For streams of records:
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
//
// Types serialized only as CBOR use `cbor` struct tags.
package codec
