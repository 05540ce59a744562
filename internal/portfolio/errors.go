package portfolio

import "fmt"

// ValidationError reports a bad request: a missing or out of range efficiency, or
// an unknown model. It is detected before any model is evaluated.
type ValidationError struct {
	Channel string
	Model   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("Unknown model '%s' for channel '%s'", e.Model, e.Channel)
	}
	if e.Reason != "" {
		return fmt.Sprintf("Invalid efficiency for '%s': %s", e.Channel, e.Reason)
	}
	return fmt.Sprintf("Missing efficiency for '%s'", e.Channel)
}

// EvaluationError reports that a model could not be loaded or evaluated. It points
// at a deployment problem rather than a bad request.
type EvaluationError struct {
	Channel string
	Model   string
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating model '%s' for channel '%s': %v", e.Model, e.Channel, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
