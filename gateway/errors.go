package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a local rejection raised before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NetworkError means the request did not complete (offline, DNS, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "Network error. Please check your connection and try again."
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ApplicationError is a non-2xx response from the verification backend.
type ApplicationError struct {
	Status int
	// ServerMessage is the backend's own message, or the raw body when it was not JSON.
	ServerMessage string
	Message       string
}

func (e *ApplicationError) Error() string { return e.Message }

// newApplicationError maps a status code to the message shown to the user.
func newApplicationError(status int, serverMessage string) *ApplicationError {
	e := &ApplicationError{Status: status, ServerMessage: serverMessage}
	switch status {
	case http.StatusBadRequest:
		e.Message = serverMessage
		if e.Message == "" {
			e.Message = "Invalid request. Please check your details and try again."
		}
	case http.StatusUnauthorized:
		e.Message = "Your session has expired. Please log in again."
	case http.StatusForbidden:
		e.Message = "You are not allowed to submit a verification."
	case http.StatusNotFound:
		e.Message = "Verification service is unavailable."
	case http.StatusUnprocessableEntity:
		e.Message = "Validation failed. Please check your details and try again."
	default:
		e.Message = fmt.Sprintf("Verification failed with status %d", status)
	}
	return e
}

// UserMessage returns the text to show for err, whatever its kind.
func UserMessage(err error) string {
	var (
		verr *ValidationError
		nerr *NetworkError
		aerr *ApplicationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &nerr):
		return nerr.Error()
	case errors.As(err, &aerr):
		return aerr.Message
	default:
		return "Verification failed. Please try again."
	}
}
