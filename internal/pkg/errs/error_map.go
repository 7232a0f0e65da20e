/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError templates used by
every component of the client runtime.
*/
package errs

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: API Request Errors
	ErrRequestFailed:   {Code: ErrRequestFailed, Message: "Request failed"},
	ErrInvalidResponse: {Code: ErrInvalidResponse, Message: "Unexpected response from server."},
	ErrEncodeFailed:    {Code: ErrEncodeFailed, Message: "Could not encode request."},

	// 2xxx: Session and Storage Errors
	ErrInvalidLoginInput:  {Code: ErrInvalidLoginInput, Message: "A user id is required to sign in."},
	ErrStorageUnavailable: {Code: ErrStorageUnavailable, Message: "Identity storage is unavailable: %s"},

	// 3xxx: Navigation Errors
	ErrRouteNotFound: {Code: ErrRouteNotFound, Message: "No route matches %s"},
	ErrRedirectLoop:  {Code: ErrRedirectLoop, Message: "Too many redirects while navigating to %s"},

	// 4xxx: Real-Time Channel Errors
	ErrConnectionFailure:  {Code: ErrConnectionFailure, Message: "Real-time connection failed."},
	ErrConnectionClosed:   {Code: ErrConnectionClosed, Message: "Real-time connection is closed."},
	ErrConnectionNotReady: {Code: ErrConnectionNotReady, Message: "Real-time connection is not ready yet."},

	// 5xxx: Internal Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again."},

	// 6xxx: Terminal Errors
	ErrUsage:          {Code: ErrUsage, Message: "Usage: %s"},
	ErrUnknownCommand: {Code: ErrUnknownCommand, Message: "Unknown command %q. Type 'help'."},
}
