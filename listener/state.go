package listener

type State int

const (
	Idle State = iota
	Recording
	Processing
	Transcribing
	Error
	ShuttingDown
	Shutdown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Transcribing:
		return "transcribing"
	case Error:
		return "error"
	case ShuttingDown:
		return "shutting_down"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
