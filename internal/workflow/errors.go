package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBusy rejects a stage operation started while another operation's
// generation call is still outstanding. Recoverable: retry after the
// in-flight operation completes.
var ErrBusy = errors.New("another workflow operation is in flight")

// errEmptyResponse marks a generation call that returned without usable
// content; surfaced wrapped in a CollaboratorError.
var errEmptyResponse = errors.New("generation service returned an empty response")

// EmptyInputError reports blank required user input. No state changes;
// re-prompt the user.
type EmptyInputError struct {
	Field string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s must not be blank", e.Field)
}

// IllegalTransitionError reports an advance to anything other than the
// immediate successor of the current stage. This is a contract violation in
// the caller, not a user-recoverable condition.
type IllegalTransitionError struct {
	From Stage
	To   Stage
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal stage transition: %s -> %s", e.From, e.To)
}

// MissingPayloadError reports an advance without the data the target stage
// requires. Like IllegalTransitionError, a contract violation.
type MissingPayloadError struct {
	Target  Stage
	Missing string
}

func (e *MissingPayloadError) Error() string {
	return fmt.Sprintf("cannot enter stage %s: missing %s", e.Target, e.Missing)
}

// CollaboratorError wraps a failed generation-service call. Recoverable by
// retrying the same step at the user's discretion; the workflow never
// retries automatically.
type CollaboratorError struct {
	Step string
	Err  error
}

func (e *CollaboratorError) Error() string {
	step := strings.TrimSpace(e.Step)
	if step == "" {
		step = "generation"
	}
	return fmt.Sprintf("%s request failed: %v", step, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
