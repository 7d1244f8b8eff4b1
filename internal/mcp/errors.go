// Package mcp implements the Model Context Protocol (MCP) server exposing
// the retrieval engine's five query entry points as tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/goldentooth/knowledgeengine/internal/kerrors"
)

// Custom MCP error codes for knowledgeengine.
const (
	// ErrCodeStorageFailure indicates the index database could not be read or written.
	ErrCodeStorageFailure = -32001

	// ErrCodeEmbeddingFailed indicates embedding generation failed.
	ErrCodeEmbeddingFailed = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeGenerationFailed indicates the answer generator failed.
	ErrCodeGenerationFailed = -32004

	// ErrCodeChecksumMismatch indicates a sidecar vector failed verification.
	ErrCodeChecksumMismatch = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrToolNotFound indicates the requested tool does not exist.
var ErrToolNotFound = errors.New("tool not found")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts an engine error into an MCP error, preserving the
// closed kerrors.Kind classification where one is present.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var kerr *kerrors.Error
	if errors.As(err, &kerr) {
		return mapKindError(kerr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "request timed out or was canceled"}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "tool not found"}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

// mapKindError maps a closed kerrors.Kind (§7) to its MCP error code.
func mapKindError(kerr *kerrors.Error) *MCPError {
	switch kerr.Kind {
	case kerrors.InvalidInput:
		return &MCPError{Code: ErrCodeInvalidParams, Message: kerr.Error()}
	case kerrors.NotFound:
		return &MCPError{Code: ErrCodeMethodNotFound, Message: kerr.Error()}
	case kerrors.StorageFailure:
		return &MCPError{Code: ErrCodeStorageFailure, Message: kerr.Error()}
	case kerrors.EmbedderFailure:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: kerr.Error()}
	case kerrors.GenerationFailure:
		return &MCPError{Code: ErrCodeGenerationFailed, Message: kerr.Error()}
	case kerrors.ChecksumMismatch:
		return &MCPError{Code: ErrCodeChecksumMismatch, Message: kerr.Error()}
	case kerrors.Cancelled:
		return &MCPError{Code: ErrCodeTimeout, Message: kerr.Error()}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: kerr.Error()}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("tool %q not found", name),
	}
}
