package main

// Exit codes for the transporter CLI
const (
	ExitSuccess = 0

	// ExitStatusError indicates a response outside the 2xx range
	ExitStatusError = 1

	// ExitMalformedResponse indicates a response that could not be parsed
	ExitMalformedResponse = 2

	ExitConfigError = 3

	// ExitTransportError indicates a network/connection error
	ExitTransportError = 4

	ExitEncodingError = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
