package entity

import "fmt"

// ValidationError reports bad or missing configuration. It is fatal and
// raised before any processing starts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// MediaUnreadableError means a media file could not be opened or carries no
// video stream. Fatal for the affected video; sibling videos continue.
type MediaUnreadableError struct {
	Path string
	Err  error
}

func (e *MediaUnreadableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("media unreadable: %s", e.Path)
	}
	return fmt.Sprintf("media unreadable: %s: %v", e.Path, e.Err)
}

func (e *MediaUnreadableError) Unwrap() error { return e.Err }

// ToolError wraps a non-zero exit from the external codec tool. Fatal for
// the specific variant or clip being produced; sibling variants continue.
type ToolError struct {
	Tool   string
	Err    error
	Output string
}

func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Output)
}

func (e *ToolError) Unwrap() error { return e.Err }
