// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package network holds the in-memory topology of a multi-layer perceptron:
// its groups of units, the links declared between them, the automatically
// created bias group and the output daisy chain.
//
// # Core Concepts
//
//   - Network: global run parameters plus the ordered groups and links. A
//     network is built incrementally by application code and sealed when it
//     is compiled; after that it rejects every mutation.
//   - Group: a layer of units. Its id is its creation index and every
//     generated core label and link-partition name is derived from it.
//   - Link: a declared connection between two groups. Links are kept as
//     independent entries even when the same pair is linked twice.
//   - Output chain: the OUTPUT groups in creation order. The first one is
//     flagged, the last one broadcasts the stop decision, and its length is
//     the number of write blocks the host expects.
//
// # Why seal on compile?
//
// The output chain and the write-block count are read by every generated
// core. Allowing a group to be appended after vertices have been generated
// would leave already-emitted configuration blobs disagreeing with the
// topology, so compilation freezes the network instead of copying it.
package network
