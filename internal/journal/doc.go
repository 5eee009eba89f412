// Package journal records what an engine emitted.
//
// The journal is an append-only SQLite log of outlet events grouped by
// session. It never stores the pattern itself; replaying a session means
// reading back the positions, bangs, counts and status changes it produced.
//
// # Ordering
//
// Events carry a per-session seq and are always read back ORDER BY seq.
// at_ms is informational: it is logical time since the session started,
// taken from the engine's clock.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while a session is being written
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//
// The default path is ":memory:", which keeps the journal for the life of
// the process only.
package journal
