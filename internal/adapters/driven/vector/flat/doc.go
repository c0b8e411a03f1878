// Package flat provides an exact (brute-force) cosine-similarity vector index.
//
// Every search scores all live entries, so results are exact and
// deterministic: ties are broken by chunk ID. Deletes are logical: a removed
// entry is tombstoned and skipped by search until Compact drops it.
//
// The full state (dimensionality, entries in insertion order, tombstones) is
// serialised into a versioned, checksummed little-endian snapshot and written
// through a driven.SnapshotStore. Float bits are stored verbatim, so a
// persist/load round trip reproduces the index exactly.
package flat
