// Package store provides the SQLite-backed key-value blob store for CampusMart.
//
// Every persisted collection (catalog, transaction log, session) is a single
// JSON blob under a fixed key. The store keeps whole-collection semantics but
// adds two things the collections rely on:
//
//   - Versions: every blob carries a version that increments on each write.
//     Writes name the version they expect, so a read-modify-write that raced
//     with another writer fails with ErrVersionConflict instead of silently
//     overwriting.
//   - Atomic commit: Commit applies any number of writes in one SQL
//     transaction. Checkout uses this to persist the catalog and the
//     transaction log together.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection (SQLite has one writer anyway)
//
// Collection wraps a key with typed JSON decoding, seeding of missing blobs,
// and the corrupt-blob policy shared by every collection.
package store
