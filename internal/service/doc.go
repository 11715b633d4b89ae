// Package service contains the client-side use cases. SyncService is the one
// entry point: it routes each operation to the remote or the local backend
// according to the connectivity mode, keeps a cache of the simulation
// collection and scores eligibility over it.
//
// Validation happens before any I/O, and errors from either backend are
// returned unchanged, so store.Category classifies them the same way in both
// modes.
package service
