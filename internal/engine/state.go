package engine

// State tracks a message's progress through the turn pipeline. Each turn
// moves strictly forward: received → classified → retrieved|skipped →
// generated → recorded. The state is carried per call, never stored on the
// Engine, so concurrent turns cannot observe each other.
type State int

const (
	// StateReceived means the message passed input validation.
	StateReceived State = iota
	// StateClassified means the retrieval decision has been made.
	StateClassified
	// StateRetrieved means passages were fetched (possibly zero).
	StateRetrieved
	// StateSkipped means retrieval was not needed for this message.
	StateSkipped
	// StateGenerated means an answer was produced.
	StateGenerated
	// StateRecorded means the turn pair was appended to memory.
	StateRecorded
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateClassified:
		return "classified"
	case StateRetrieved:
		return "retrieved"
	case StateSkipped:
		return "skipped"
	case StateGenerated:
		return "generated"
	case StateRecorded:
		return "recorded"
	default:
		return "unknown"
	}
}
