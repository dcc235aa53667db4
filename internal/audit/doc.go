// Package audit persists ledger change records in SQLite.
//
// The store's core contract ends at emitting a ChangeRecord; keeping an
// audit trail is a sink's concern. This package is that sink: a Log
// implements store.ChangeSink and appends every committed mutation as
// one row, keyed by the record's UUIDv7 ID. Duplicate deliveries are
// ignored (INSERT OR IGNORE), so re-emitting a record is harmless.
//
// Change payloads are stored as canonical JSON (sorted, NFC-normalized
// keys) so identical diffs are byte-identical rows.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single connection: SQLite allows one writer at a time anyway
//
// Opening is idempotent: the schema is applied on every Open.
package audit
