// Package store implements the gated mutation pipeline for the economy
// ledger.
//
// One Store owns the in-memory committed ledger and the write gate. All
// mutation flows through exactly one path:
//
//	acquire gate -> backup current blob -> persist new blob ->
//	diff -> swap committed state -> release gate -> emit ChangeRecord
//
// There is no secondary mutation entry point.
//
// # Concurrency Model
//
// Writers are strictly serialized by the gate, first come first served;
// a waiter can cancel via its context without affecting other waiters or
// the holder. Readers never pass through the gate: Read copies the last
// committed state under a read lock, so a read never observes a
// half-applied write, and a read started after a commit observes that
// commit or a later one.
//
// Update holds the gate across the whole load -> transform -> persist
// sequence. This closes the read-modify-write race a naive Read-then-
// Write pair would have: two callers reading the same base state and
// overwriting each other's change.
//
// # Failure Model
//
// A failed backup aborts the mutation before anything destructive
// happens. A failed updater propagates unchanged with the ledger
// untouched. The store never retries silently; papering over a failed
// backup or persist is precisely the failure this package exists to
// prevent.
package store
