// Package storage holds the user records served by the users API.
//
// Key types:
//
//   - UserStore: the interface handlers depend on
//   - MemoryStore: thread-safe in-memory implementation, seeded with two users
//   - TimedStore: wrapper reporting the latency of every call to a LatencyObserver
//
// MemoryStore is the only backend. It keeps no state across restarts.
package storage
