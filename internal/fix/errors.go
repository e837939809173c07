package fix

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyContains    = errors.New("fix: already contains")
	ErrNoHeader           = errors.New("fix: no header component")
	ErrNoTrailer          = errors.New("fix: no trailer component")
	ErrMalformed          = errors.New("fix: malformed message")
	ErrBodyLengthMismatch = errors.New("fix: body length mismatch")
	ErrChecksumMismatch   = errors.New("fix: checksum mismatch")
	ErrCharset            = errors.New("fix: charset")
	ErrSchemaNotFound     = errors.New("fix: schema not found")
	ErrNoMessageType      = errors.New("fix: no message type")
	ErrUnknownField       = errors.New("fix: unknown field")
	ErrUnknownTag         = errors.New("fix: unknown tag")
	ErrNoTag              = errors.New("fix: no tag")
	ErrUnsupportedValue   = errors.New("fix: unsupported value")
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
		return fmt.Sprintf("fix: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("fix: message %q: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fix: message %q field %q: %v", e.Message, e.Field, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
