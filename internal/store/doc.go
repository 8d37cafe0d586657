// Package store provides the SQLite-backed record collection that pages are
// served from, and the log of descriptors resolved against it.
//
// # Records
//
// Records carry an opaque id, a position and a label. Positions are kept
// contiguous from 0: AppendRecords assigns them, Truncate removes a suffix,
// and Seed rebuilds the table. A record's position is therefore its absolute
// index in collection order, which is what selection descriptors refer to.
//
// Every listing orders by position ASC, id ASC COLLATE BINARY.
//
// # Resolutions
//
// Resolve turns a descriptor into the matching record count and ids using
// the queryir/querysql lowering. RecordResolution stores the outcome keyed by
// the descriptor fingerprint; the first write for a fingerprint wins.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - A single open connection
package store
