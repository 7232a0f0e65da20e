/*
Package errs provides custom error types and application-level error code constants.

These error codes identify the failure kinds the client runtime surfaces to its
callers: request failures, local validation, storage degradation, routing and
real-time connection problems.
*/
package errs

// 1xxx: API Request Errors
const (
	// ErrRequestFailed indicates a non-success HTTP response or a network failure.
	ErrRequestFailed = 1001

	// ErrInvalidResponse indicates a success response whose body could not be decoded.
	ErrInvalidResponse = 1002

	// ErrEncodeFailed indicates the request payload could not be encoded as JSON.
	ErrEncodeFailed = 1003
)

// 2xxx: Session and Storage Errors
const (
	// ErrInvalidLoginInput indicates local validation rejected a login before any write.
	ErrInvalidLoginInput = 2001

	// ErrStorageUnavailable indicates the durable identity store could not be used.
	// It is never fatal: the session keeps working from memory.
	ErrStorageUnavailable = 2002
)

// 3xxx: Navigation Errors
const (
	// ErrRouteNotFound indicates no route record matches the requested path.
	ErrRouteNotFound = 3001

	// ErrRedirectLoop indicates redirects did not settle within the hop limit.
	ErrRedirectLoop = 3002
)

// 4xxx: Real-Time Channel Errors
const (
	// ErrConnectionFailure indicates the real-time transport could not connect or dropped.
	ErrConnectionFailure = 4001

	// ErrConnectionClosed indicates an operation on a connection handle that was torn down.
	ErrConnectionClosed = 4002

	// ErrConnectionNotReady indicates an emit before the channel finished connecting.
	ErrConnectionNotReady = 4003
)

// 5xxx: Internal Errors
const (
	// ErrUnknown represents an unclassified failure.
	ErrUnknown = 5000
)

// 6xxx: Terminal Errors
const (
	// ErrUsage indicates a command was called with the wrong arguments.
	ErrUsage = 6001
	// ErrUnknownCommand indicates the first word of a line names no command.
	ErrUnknownCommand = 6002
)
