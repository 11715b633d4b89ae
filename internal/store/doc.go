// Package store defines the capability set every simulation backend offers and
// the error taxonomy they share. The remote HTTP client and the local
// key/value-backed store both implement Backend, so the synchronization layer
// can pick one per call without branching at every call site.
package store
