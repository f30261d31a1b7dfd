// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventtrace records decoded build events to a file for bug
// reports. A trace is a CBOR sequence of Record values, optionally
// compressed: the file suffix selects zstd (".zst", ".zstd") or LZ4
// (".lz4"); any other suffix writes plain CBOR.
//
// buildwatch only ever writes traces. Reader exists for tooling that
// inspects them, and for tests.
package eventtrace
