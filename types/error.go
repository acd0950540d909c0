package types

import "fmt"

// ErrorCode represents a unified error code across CanvasFlow.
type ErrorCode string

// Graph mutation error codes. These surface as non-fatal warnings: the
// offending mutation is a no-op and the rest of a batch still proceeds.
const (
	ErrProtectedNode      ErrorCode = "PROTECTED_NODE"
	ErrRouterConnected    ErrorCode = "ROUTER_CONNECTED"
	ErrSlotOccupied       ErrorCode = "SLOT_OCCUPIED"
	ErrDuplicateNode      ErrorCode = "DUPLICATE_NODE"
	ErrInvalidRouteRename ErrorCode = "INVALID_ROUTE_RENAME"
	ErrNotRouter          ErrorCode = "NOT_ROUTER"
)

// Document and API error codes.
const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrInvalidGraph     ErrorCode = "INVALID_GRAPH"
	ErrWorkflowNotFound ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrStorageFailure   ErrorCode = "STORAGE_FAILURE"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	NodeID     string    `json:"node_id,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithNode attaches the id of the node the error concerns.
func (e *Error) WithNode(nodeID string) *Error {
	e.NodeID = nodeID
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
