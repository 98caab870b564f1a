// Package workflow drives one artifact through the remote change
// workflow: isolated branch, commit, push, pull request, optional
// auto-merge, merge confirmation and branch cleanup.
//
// A run is an explicit state machine. Every state change is appended to
// Run.Transitions and reported to an Observer. A failed step rolls back
// what the run created, chosen by the last state reached, so the work tree
// is never left on a half-published branch. Once a pull request is open
// nothing is rolled back: a failed merge leaves the request for a human.
//
// Rollback and cleanup run on a context detached from the caller's
// cancellation so a caller deadline cannot strand a branch.
package workflow
