package workflow

import (
	"errors"
	"fmt"
)

// ErrMergeNotConfirmed is recorded on a run when the merge call succeeded
// but polling never saw the pull request as merged. Cleanup is skipped.
var ErrMergeNotConfirmed = errors.New("merge not confirmed before timeout")

// ErrFileExists is returned by WriteAndCommit when the target path is
// already present in the work tree.
var ErrFileExists = errors.New("target file already exists")

// Kind classifies where a step failed.
type Kind string

const (
	// KindLocal covers branch, commit and file I/O failures. Never retried.
	KindLocal Kind = "local"
	// KindRemote covers hosting API rejections.
	KindRemote Kind = "remote"
	// KindNetwork covers push transport and HTTP transport failures.
	KindNetwork Kind = "network"
)

// StepError is the cause of a failed run.
type StepError struct {
	Step Step
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// KindOf returns the kind of err when it is or wraps a *StepError.
func KindOf(err error) (Kind, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind, true
	}
	return "", false
}
