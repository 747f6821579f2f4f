package advice

import "errors"

var (
	// ErrMissingGoal is returned when neither the request nor the profile
	// carries a training goal.
	ErrMissingGoal = errors.New("training goal is required")
	// ErrEmptyAdvice is returned when the model answered without usable advice.
	ErrEmptyAdvice = errors.New("the model returned no advice")
	// ErrModelTimeout is returned when the model did not answer in time.
	ErrModelTimeout = errors.New("the model did not answer in time")
	// ErrModelFailed wraps any other failure of the model call.
	ErrModelFailed = errors.New("the model call failed")
)

type Request struct {
	TrainingGoal          string `json:"trainingGoal"`
	CurrentRoutineDetails string `json:"currentRoutineDetails,omitempty"`
}

type Response struct {
	Advice string `json:"advice"`
}

// ErrorResponse is sent for failed advice requests. Retryable tells the
// client that asking again later may succeed.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}
