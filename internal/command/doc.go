// Package command instruments command handlers with ledger change
// tracking.
//
// A command-dispatch host (a Discord bot, an RPC router) calls handlers
// with an invocation context and awaits completion. Tracker.Wrap turns a
// handler into an identical handler that additionally captures the
// ledger before and after the invocation and reports what changed and on
// whose behalf. The host's calling convention is untouched: the wrapper
// forwards the context, the invocation, and the handler's error (or
// panic) unchanged.
//
// The wrapper observes through Store.Read only; it never participates in
// the write gate. If the ledger differs across the invocation but no
// mutation went through the store's tracked path, a "silent
// modification" diagnostic is emitted. That is an integrity check, not a
// blocker: the handler's result stands either way, the unreported
// mutation is just made visible for audit.
//
// The post-capture runs on every exit path, including handler failure
// and panic, in which case the failure reason goes to the diagnostic
// sink instead of a change summary.
package command
