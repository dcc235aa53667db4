// Package codec serializes the ledger document to and from its durable
// JSON blob.
//
// Persistence is atomic from an external observer's point of view: Save
// writes to a temporary file in the same directory, fsyncs it, then
// renames it over the target. A crash mid-write leaves either the old or
// the new content on disk, never a truncated document.
//
// Load treats a missing or empty file as the empty ledger (a fresh
// deployment has no document yet); anything else that fails to decode is
// a *CorruptDataError, which is fatal to the calling operation and never
// retried here — the caller decides whether to abort or start over.
package codec
