package region

import (
	"fmt"
	"unicode/utf8"
)

// PutStringUTF8 writes a length-prefixed UTF-8 string at offset: a 4-byte
// length header followed by the encoded bytes. Returns the total number of
// bytes written (header + payload).
func (r *Region) PutStringUTF8(offset int, s string) (int, error) {
	payload := []byte(s)
	total := 4 + len(payload)

	if err := r.checkBounds(offset, total); err != nil {
		return 0, err
	}

	if err := r.PutInt32(offset, int32(len(payload))); err != nil { //nolint:gosec
		return 0, err
	}

	if err := r.CopyIn(offset+4, payload); err != nil {
		return 0, err
	}

	return total, nil
}

// GetStringUTF8 reads a length-prefixed UTF-8 string written by PutStringUTF8.
func (r *Region) GetStringUTF8(offset int) (string, error) {
	length, err := r.GetInt32(offset)
	if err != nil {
		return "", err
	}

	if length < 0 {
		return "", fmt.Errorf("region: negative string length %d: %w", length, ErrOutOfBounds)
	}

	payload, err := r.CopyOut(offset+4, int(length))
	if err != nil {
		return "", err
	}

	if !utf8.Valid(payload) {
		return "", fmt.Errorf("region: invalid UTF-8 at offset %d: %w", offset, ErrInvalidArgument)
	}

	return string(payload), nil
}

// PutStringAscii writes a length-prefixed ASCII string at offset. Every byte
// of s must be printable ASCII (0x20-0x7E).
func (r *Region) PutStringAscii(offset int, s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return 0, fmt.Errorf("region: byte %d (0x%02x) is not printable ASCII: %w", i, s[i], ErrInvalidArgument)
		}
	}

	return r.PutStringUTF8(offset, s)
}

// GetStringAscii reads a length-prefixed ASCII string written by PutStringAscii.
func (r *Region) GetStringAscii(offset int) (string, error) {
	length, err := r.GetInt32(offset)
	if err != nil {
		return "", err
	}

	if length < 0 {
		return "", fmt.Errorf("region: negative string length %d: %w", length, ErrOutOfBounds)
	}

	payload, err := r.CopyOut(offset+4, int(length))
	if err != nil {
		return "", err
	}

	for i, b := range payload {
		if b < 0x20 || b > 0x7E {
			return "", fmt.Errorf("region: byte %d (0x%02x) is not printable ASCII: %w", i, b, ErrInvalidArgument)
		}
	}

	return string(payload), nil
}
