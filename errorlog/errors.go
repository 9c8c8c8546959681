package errorlog

import "errors"

// ErrInvalidArgument indicates a region too small to hold even one record.
var ErrInvalidArgument = errors.New("errorlog: invalid argument")
