// Package mcp implements the Model Context Protocol server that exposes
// the documentation index to AI clients.
package mcp

import "fmt"

// Standard JSON-RPC error codes.
const (
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// Error is an MCP protocol error with code and message.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid parameters error.
func NewInvalidParamsError(message string) *Error {
	return &Error{Code: ErrCodeInvalidParams, Message: message}
}

// NewInternalError wraps an internal failure.
func NewInternalError(err error) *Error {
	return &Error{Code: ErrCodeInternalError, Message: err.Error()}
}
