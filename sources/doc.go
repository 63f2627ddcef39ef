// Package sources defines where content comes from and when it is fetched.
//
// A Source yields content items from some external origin. The Scheduler
// polls all registered sources on an interval, fanning each one out onto a
// worker pool and pushing fetched items through the ingestion coordinator.
// Source failures are isolated: one broken feed never blocks the rest.
package sources
