package server

import (
	"errors"

	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
)

// Message types of the session protocol.
const (
	// Client to server.
	MsgHover       = "hover"
	MsgLeave       = "leave"
	MsgSelect      = "select"
	MsgReconfigure = "reconfigure"

	// Server to client.
	MsgDecision = "decision"
	MsgSelected = "selected"
	MsgError    = "error"
)

// Error codes sent with MsgError.
const (
	CodeInvalidSelection     = "invalid_selection"
	CodeInvalidConfiguration = "invalid_configuration"
	CodeBadRequest           = "bad_request"
)

// Request is a client message.
type Request struct {
	Type   string            `json:"type"`
	Set    models.SetID      `json:"set,omitempty"`
	Index  int               `json:"index"`
	Update *highlight.Update `json:"update,omitempty"`
}

// Response is a server message.
type Response struct {
	Type     string                    `json:"type"`
	Session  string                    `json:"session"`
	Decision *models.HighlightDecision `json:"decision,omitempty"`

	// Select callback payload (MsgSelected)
	Set   models.SetID `json:"set,omitempty"`
	Index int          `json:"index"`
	Text  string       `json:"text,omitempty"`

	// MsgError
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidSelection):
		return CodeInvalidSelection
	case errors.Is(err, models.ErrInvalidConfiguration):
		return CodeInvalidConfiguration
	default:
		return CodeBadRequest
	}
}
