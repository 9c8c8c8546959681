package broadcast

import "errors"

// Error classification for the broadcast buffer.
var (
	// ErrInvalidArgument indicates typeId < 1, a payload exceeding
	// MaxMessageLength, or a malformed construction parameter.
	ErrInvalidArgument = errors.New("broadcast: invalid argument")

	// ErrTransmitterActive indicates a Transmitter already owns this region;
	// exactly one transmitter is permitted per region.
	ErrTransmitterActive = errors.New("broadcast: transmitter already active for this region")
)
