package ringbuffer

import "errors"

// Error classification for the ring buffer.
var (
	// ErrInvalidArgument indicates a non-power-of-two capacity or a payload
	// exceeding MaxMessageLength.
	ErrInvalidArgument = errors.New("ringbuffer: invalid argument")
)
