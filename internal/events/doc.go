// Package events carries in-process notifications between components that
// must not import each other. The connectivity state publishes
// TypeModeChanged; the sync facade listens to drop its cache.
package events
