package publish

import "time"

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Report captures what a single publish run did.
type Report struct {
	RunID         string                     `json:"run_id"`
	StartBranch   string                     `json:"start_branch"`
	FinalBranch   string                     `json:"final_branch"`
	Outcome       string                     `json:"outcome"`
	FailedStep    StepName                   `json:"failed_step,omitempty"`
	Error         string                     `json:"error,omitempty"`
	Commit        string                     `json:"commit,omitempty"`
	Completed     []StepName                 `json:"completed"`
	StepDurations map[StepName]time.Duration `json:"step_durations"`
	Started       time.Time                  `json:"started"`
	Finished      time.Time                  `json:"finished"`
}

// Duration returns the total run duration.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
