package agent

// Frame types delivered by the agent endpoint over the duplex channel.
const (
	FrameStatus = "status"
	FrameToken  = "token"
	FrameError  = "error"
)

// StatusThinking is the status value that marks a generation turn in flight.
const StatusThinking = "thinking"

// Frame is one JSON payload received from the agent endpoint.
type Frame struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Token  string `json:"token,omitempty"`
	Done   bool   `json:"done,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TaskRequest is the payload sent to the agent, both over the duplex channel
// and through the HTTP fallback.
type TaskRequest struct {
	Task  string `json:"task"`
	Model string `json:"model"`
}

// FrameHandler receives inbound frames and connection lifecycle events from
// a Connector. Frames are delivered strictly in arrival order.
type FrameHandler interface {
	HandleFrame(Frame)
	// HandleDisconnect fires when the duplex channel drops, clean or not.
	HandleDisconnect()
}
