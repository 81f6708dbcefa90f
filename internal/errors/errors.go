package errors

import "errors"

// This package defines the sentinel errors shared across the application.
// Services wrap them with context via fmt.Errorf("...: %w", err) and the API
// layer maps them to HTTP responses with errors.Is().

// Turn taxonomy. Every outcome of a conversation turn other than success
// resolves to exactly one of these.
var (
	// ErrConfiguration signifies that a required connection parameter is
	// missing or invalid. It is the only fatal class: the process stops
	// before any session can be started.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport signifies that the request to the remote chat service
	// could not complete (DNS, connection refused, timeout, TLS).
	ErrTransport = errors.New("transport failure")

	// ErrHTTPStatus signifies that the remote chat service answered with a
	// non-2xx status code.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrRemote signifies that the remote chat service answered 2xx but
	// reported an error inside its JSON body.
	ErrRemote = errors.New("remote service error")

	// ErrMalformedResponse signifies a 2xx answer whose body could not be
	// understood.
	ErrMalformedResponse = errors.New("malformed response")
)

// Service and API errors.
var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation conflicts with the current
	// state of a resource, e.g. a second turn submitted while one is still
	// in flight for the same session.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrInternal signifies an unexpected error on the server. It keeps
	// implementation details away from clients.
	ErrInternal = errors.New("internal server error")
)
