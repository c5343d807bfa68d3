// Package realtime is the client SDK for the edulive push hub.
//
// It provides room-scoped event synchronization for the features that need
// live updates: chat messaging, student note tracking and video watch
// progress. Each feature session owns one hub connection, joins exactly one
// room derived from its domain keys, and republishes a reconciled snapshot
// of room state. Transport failures degrade the session to "not live"
// (ConnectivityStatus reports it) and never propagate to the consumer.
package realtime
