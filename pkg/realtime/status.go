package realtime

// ConnectivityStatus reports whether a session is live. It is derived state,
// updated by the lifecycle manager at transition points only; consumers read
// it to render a connectivity indicator and must not act on it for delivery
// guarantees.
type ConnectivityStatus int

const (
	// StatusDisconnected means no usable hub connection exists.
	StatusDisconnected ConnectivityStatus = iota

	// StatusConnecting means a connect or join attempt is in flight.
	StatusConnecting

	// StatusConnected means the room is joined and events are flowing.
	StatusConnected
)

func (s ConnectivityStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "unknown"
	}
}
