package session

// State is the connection status of a Channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

var allStates = []string{"disconnected", "connecting", "connected"}

func (s State) String() string {
	if s < 0 || int(s) >= len(allStates) {
		return "unknown"
	}
	return allStates[s]
}
