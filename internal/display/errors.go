package display

import "errors"

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}

var (
	errNotRealized = errors.New("window not realized")
	errNotX11      = errors.New("window surface is not an X11 surface")
)

// xidError reports why a window has no usable X11 id.
func xidError(cause error) error {
	return &DisplayError{Message: "failed to resolve X11 window id", Cause: cause}
}
