package models

import "time"

// Plan is an ordered, append-only list of steps with a progress cursor.
// Steps are referenced by index, never by pointer identity, so a plan
// round-trips through storage as a plain structural serialization.
type Plan struct {
	CampaignID string  `json:"campaign_id" validate:"required"`
	Steps      []*Step `json:"steps"`
	// CurrentStepIndex is the next step to execute. All steps before it are
	// completed; 0 <= CurrentStepIndex <= len(Steps).
	CurrentStepIndex int       `json:"current_step_index"`
	Context          string    `json:"context"`
	CreatedAt        time.Time `json:"created_at"`
}

// Finished reports whether the cursor has passed the last step.
func (p *Plan) Finished() bool {
	return p.CurrentStepIndex >= len(p.Steps)
}

// CompletedSteps counts steps already executed.
func (p *Plan) CompletedSteps() int {
	count := 0

	for _, step := range p.Steps {
		if step.IsCompleted {
			count++
		}
	}

	return count
}

// CurrentStep returns the step under the cursor, or nil when the plan is done.
func (p *Plan) CurrentStep() *Step {
	if p.Finished() {
		return nil
	}

	return p.Steps[p.CurrentStepIndex]
}
