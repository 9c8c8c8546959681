package errorlog

import (
	"errors"
	"fmt"
	"strings"
)

// Identity is an error's coalescing fingerprint: its kind, its message,
// and the identity of its cause chain, recursively. Two errors coalesce
// into one record iff their Identity values encode to the same string.
type Identity struct {
	Kind    string
	Message string
	Causes  []Identity
}

// IdentityFromError derives an Identity from a Go error by walking its
// errors.Unwrap chain — the Go-native analogue of walking a Throwable's
// getCause() chain. Kind is the error's dynamic type name.
func IdentityFromError(err error) Identity {
	id := Identity{
		Kind:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	if cause := errors.Unwrap(err); cause != nil {
		id.Causes = append(id.Causes, IdentityFromError(cause))
	}

	return id
}

// Encode produces the deterministic string used both as the coalescing key
// and as the record's persisted payload.
func (id Identity) Encode() string {
	var b strings.Builder

	id.writeTo(&b)

	return b.String()
}

func (id Identity) writeTo(b *strings.Builder) {
	b.WriteString(id.Kind)
	b.WriteString(": ")
	b.WriteString(id.Message)

	for _, cause := range id.Causes {
		b.WriteString("\nCaused by: ")
		cause.writeTo(b)
	}
}
