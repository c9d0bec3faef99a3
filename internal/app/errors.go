package app

import "fmt"

// Error codes surfaced by the sync/state module.
const (
	CodeValidation      = "VALIDATION"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeAuth            = "AUTH"
	CodeEditSession     = "EDIT_SESSION"
	CodeNoData          = "NO_DATA"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// validationError reports bad input caught before any remote call.
func validationError(message string) *DomainError {
	return domainError(400, CodeValidation, message)
}

// authError passes a remote identity failure through to the caller.
func authError(message string) *DomainError {
	return domainError(401, CodeAuth, message)
}

// errUnauthenticated reports a precondition failure; no remote call was made.
func errUnauthenticated() *DomainError {
	return domainError(401, CodeUnauthenticated, "no authenticated user")
}
