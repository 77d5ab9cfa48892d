package server

import "github.com/agbru/lanefrac/internal/fractal"

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	// Error is the HTTP status text.
	Error string `json:"error"`
	// Message describes what was wrong with the request.
	Message string `json:"message,omitempty"`
}

// KernelInfo is one entry of the /kernels reply.
type KernelInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// renderParams are the decoded query parameters of /render.
type renderParams struct {
	kernel string
	view   fractal.View
	opts   fractal.Options
	format string
}

// RequestError is a rejected request with the status to reply with.
type RequestError struct {
	Message    string
	StatusCode int
}

func (e RequestError) Error() string {
	return e.Message
}
