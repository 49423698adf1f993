package publish

import "fmt"

// StepName is a strongly-typed identifier for a publish step. All canonical
// steps are declared as constants here for compile-time safety.
type StepName string

// Canonical step names, in execution order.
const (
	StepPrecondition    StepName = "precondition"
	StepCleanOutput     StepName = "clean_output"
	StepCheckoutPublish StepName = "checkout_publish"
	StepMergePrimary    StepName = "merge_primary"
	StepGenerate        StepName = "generate"
	StepCommit          StepName = "commit"
	StepPush            StepName = "push"
	StepCheckoutBack    StepName = "checkout_back"
)

// StepOrder is the fixed execution order. It never changes at runtime; it is
// exported so tests and status surfaces can assert against it.
var StepOrder = []StepName{
	StepPrecondition,
	StepCleanOutput,
	StepCheckoutPublish,
	StepMergePrimary,
	StepGenerate,
	StepCommit,
	StepPush,
	StepCheckoutBack,
}

// StepError is a structured error carrying the failing step and the
// underlying cause.
type StepError struct {
	Step StepName
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }
