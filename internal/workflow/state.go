package workflow

import "time"

// State is the point a publish run has reached. Runs are never resumed,
// so states exist only in memory and in history events.
type State string

const (
	StateIdle               State = "idle"                 // Nothing done yet
	StateBranchCreated      State = "branch_created"       // Isolated branch checked out
	StateCommitted          State = "committed"            // Artifact committed on the branch
	StatePushed             State = "pushed"               // Branch on the remote
	StateReviewOpen         State = "review_open"          // Pull request opened
	StateMerged             State = "merged"               // Pull request merged into trunk
	StateReviewOpenUnmerged State = "review_open_unmerged" // Pull request left open (terminal)
	StateCleanedUp          State = "cleaned_up"           // Merged branch deleted (terminal)
	StateFailed             State = "failed"               // A step failed
	StateRolledBack         State = "rolled_back"          // Failure undone (terminal)
)

// IsValid checks if the state value is valid
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateBranchCreated, StateCommitted, StatePushed, StateReviewOpen,
		StateMerged, StateReviewOpenUnmerged, StateCleanedUp, StateFailed, StateRolledBack:
		return true
	}
	return false
}

// ValidTransitions returns the states reachable from s.
func (s State) ValidTransitions() []State {
	switch s {
	case StateIdle:
		return []State{StateBranchCreated, StateFailed}
	case StateBranchCreated:
		return []State{StateCommitted, StateFailed}
	case StateCommitted:
		return []State{StatePushed, StateFailed}
	case StatePushed:
		return []State{StateReviewOpen, StateFailed}
	case StateReviewOpen:
		// Merge failure is not a run failure
		return []State{StateMerged, StateReviewOpenUnmerged}
	case StateMerged:
		// An unconfirmed merge stays in merged with the wait step's error
		return []State{StateMerged, StateCleanedUp}
	case StateFailed:
		return []State{StateRolledBack}
	default:
		return nil
	}
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s State) CanTransitionTo(target State) bool {
	for _, valid := range s.ValidTransitions() {
		if valid == target {
			return true
		}
	}
	return false
}

// Published reports whether a run that ended in s opened a pull request.
func (s State) Published() bool {
	switch s {
	case StateReviewOpen, StateMerged, StateReviewOpenUnmerged, StateCleanedUp:
		return true
	}
	return false
}

// Step names one action of the workflow.
type Step string

const (
	StepCreateBranch   Step = "create_branch"
	StepWriteAndCommit Step = "write_and_commit"
	StepPush           Step = "push"
	StepOpenReview     Step = "open_review"
	StepAutoMerge      Step = "auto_merge"
	StepWaitForMerge   Step = "wait_for_merge"
	StepCleanupBranch  Step = "cleanup_branch"
	StepRollback       Step = "rollback"
)

// Transition records one state change of a run.
type Transition struct {
	From State
	To   State
	Step Step
	At   time.Time
	Err  error // set when the step failed
}

// Observer is notified of every transition as it happens.
type Observer interface {
	OnTransition(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }
