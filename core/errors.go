package core

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionClosed = errors.New("connection closed by remote host")
	ErrTimeout          = errors.New("timed out waiting for data")
	ErrMalformedPacket  = errors.New("malformed packet")
	ErrLength           = errors.New("outgoing packet too large")
	ErrAuthentication   = errors.New("not authenticated")
	ErrNotConnected     = errors.New("not connected")
)

// LengthError is returned before anything is sent when an outgoing payload does not
// fit in a single packet.
type LengthError struct {
	Length int
	Max    int
}

func (err *LengthError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds the maximum of %d bytes", err.Length, err.Max)
}

func (err *LengthError) Is(target error) bool {
	return target == ErrLength
}

// Malformed wraps err as an ErrMalformedPacket with the given context.
func Malformed(context string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformedPacket, context)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedPacket, context, err)
}
