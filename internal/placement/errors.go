package placement

import "fmt"

// ProtocolError wraps a failure talking to the display server.
// Placers log these and carry on; the popup still shows, only unstyled
// or unpositioned.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("x11 %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protoErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProtocolError{Op: op, Err: err}
}
