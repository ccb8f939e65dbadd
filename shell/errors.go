package shell

import (
	"errors"
	"fmt"
)

var (
	ErrRole         = errors.New("surface already has another role")
	ErrInvalidLayer = errors.New("layer is bigger than enum max")
	ErrNoCapability = errors.New("client lacks capability")
	ErrUnsupported  = errors.New("not supported")
)

// ErrorCode is a layer shell protocol error code.
type ErrorCode uint32

const (
	ErrorRole ErrorCode = iota
	ErrorInvalidLayer
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorRole:
		return "role"
	case ErrorInvalidLayer:
		return "invalid_layer"
	default:
		return fmt.Sprintf("ErrorCode(%d)", uint32(c))
	}
}

// ProtocolError is an error that should be posted to the client that
// caused it. The request that caused it has been aborted.
type ProtocolError struct {
	Code ErrorCode
	Err  error
}

func (err *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %v: %v", err.Code, err.Err)
}

func (err *ProtocolError) Unwrap() error {
	return err.Err
}
