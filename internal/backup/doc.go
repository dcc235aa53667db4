// Package backup stores pre-write copies of the ledger blob.
//
// Every mutation snapshots the current blob before the primary file is
// overwritten. Snapshots are generation-identified (timestamp plus a
// UUIDv7 suffix) so they never collide with each other or the primary,
// and they are never mutated after creation.
//
// A failed snapshot aborts the mutation that requested it: a write
// without a prior backup would defeat the durability guarantee the store
// promises. The failure surfaces as a *backup.Error.
//
// Retention is the deployment's policy, not the store's: Prune keeps the
// newest N generations and is called by operators (or the CLI), never
// from the mutation path.
package backup
