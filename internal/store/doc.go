// Package store holds the current value of every cataloged scalar object
// and persists it to SQLite.
//
// The store implements the agent's read/validate/commit protocol:
//   - ReadExact / ReadNext: typed reads, never fail, never mutate
//   - Validate: ordered, short-circuiting write check (see Validate)
//   - Commit / Apply: single and multi-binding writes
//   - SetPrivileged: trusted internal writes that skip access checks
//
// # Critical Patterns
//
// Key set: the in-memory map always holds exactly the catalog's names, and
// every value satisfies its descriptor's constraint at rest.
//
// All-or-nothing: Apply validates every binding before committing any, and
// the validation and commit happen under one write lock.
//
// Persist-then-swap: every mutation stages its changes, then in a single
// immediate transaction reloads the rows, merges the changes on top and
// upserts the rows it touched. Only after COMMIT does the merged state
// replace the in-memory map. A failed durable write therefore leaves memory
// untouched, and readers never observe a half-applied transaction.
//
// Shared file: several processes may open the same database (the running
// agent and one-shot set commands). Because every mutation rereads the rows
// under the write lock, a commit made through one handle is never
// overwritten by another handle's stale copy, and every mutation leaves the
// handle holding the latest committed state.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: A commit is durable when it returns
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One connection: SQLite has a single writer
//   - _txlock=immediate: transactions take the write lock at BEGIN
package store
