// Package poll implements the poll engine.
//
// A Poll is a time-scoped voting entity guarded by a single mutex: the "already voted?" check,
// the ledger write and the tally increment happen in one critical section. Lifecycle is pull-based;
// HasStarted/HasEnded compare against an injected clock and nothing in this package runs timers.
//
// ResolveRanked is the instant-runoff resolver, Distributor pays out rewards in two phases, and
// Registry maps owner -> poll id -> Poll and produces read-consistent snapshots for persistence.
package poll
