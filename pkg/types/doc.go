// Package types defines the task state machine, the Product and Catalog
// collections, the Store interface used by persistence backends, and the
// standard errors for the backlog system.
//
// A Task starts in Backlog and moves through Owned, Processing and
// Verifying to Done, or to Rejected from Backlog or Owned. Every
// successful transition appends one note tagged with the state the task
// was in before the command ran.
package types
