package fast

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownWireType  = errors.New("fast: unknown wire type")
	ErrSchemaNotFound   = errors.New("fast: schema not found")
	ErrTemplateNotFound = errors.New("fast: template not found")
	ErrNoWireName       = errors.New("fast: no wire name")
	ErrUnsupportedValue = errors.New("fast: unsupported value")
)

// CodecError names the message and field an encode or decode failed on.
type CodecError struct {
	Message string
	Field   string
	Err     error
}

func (e *CodecError) Error() string {
	switch {
	case e.Message == "":
		return fmt.Sprintf("fast: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("fast: message %q: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fast: message %q field %q: %v", e.Message, e.Field, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
