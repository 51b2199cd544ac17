package engine

// State is the lifecycle stage of a single job.
type State string

// Blocking states: the job still needs work.
const (
	StateNotStarted     State = "not started"
	StateAuthentication State = "authentication"
	StateWaiting        State = "waiting"
	StateProcessing     State = "processing"
)

// Terminal states: the job will never be touched again.
const (
	StateFinished      State = "finished"
	StateFailed        State = "failed"
	StateParsingFailed State = "parsing failed"
	StateConnFailed    State = "connection failed"
	StateAuthFailed    State = "authentication failed"
	StateNotAvailable  State = "predictor not available"
	StateTimeout       State = "timeout"
)

// IsBlocking reports whether the state still demands work.
func (s State) IsBlocking() bool {
	switch s {
	case StateNotStarted, StateAuthentication, StateWaiting, StateProcessing:
		return true
	}
	return false
}

// IsTerminal reports whether the job has reached a final outcome.
func (s State) IsTerminal() bool {
	return !s.IsBlocking()
}

// DefaultMessage is the human-readable detail attached when a transition
// supplies none.
func (s State) DefaultMessage() string {
	switch s {
	case StateNotStarted:
		return "job has not been started yet"
	case StateAuthentication:
		return "authenticating against the predictor"
	case StateWaiting:
		return "job submitted, waiting for the predictor to pick it up"
	case StateProcessing:
		return "predictor is computing"
	case StateFinished:
		return "job finished successfully"
	case StateFailed:
		return "job failed"
	case StateParsingFailed:
		return "predictor response could not be parsed"
	case StateConnFailed:
		return "could not connect to the predictor"
	case StateAuthFailed:
		return "authentication against the predictor failed"
	case StateNotAvailable:
		return "predictor is not available"
	case StateTimeout:
		return "job did not finish within the polling budget"
	}
	return string(s)
}
