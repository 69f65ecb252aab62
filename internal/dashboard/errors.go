package dashboard

import (
	"errors"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
)

var (
	ErrNotPermitted    = errors.New("action not permitted for this role")
	ErrNothingSelected = errors.New("no student selected")
	ErrNotEditing      = errors.New("edit mode is off")
	ErrIncomplete      = errors.New("required fields missing")
	ErrSuperseded      = errors.New("roster fetch superseded")
	ErrWrongPortal     = errors.New("account role does not match this login page")
	ErrNotLoggedIn     = errors.New("not logged in")
)

// UserError is a failed intent together with the text shown to the user.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func userError(msg string, err error) *UserError {
	return &UserError{Message: msg, Err: err}
}

// describe picks the server's message for application errors and generic
// otherwise, so transport details never reach the user.
func describe(err error, generic string) *UserError {
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		return userError(apiErr.Message, err)
	}
	return userError(generic, err)
}

func notPermitted(action string) *UserError {
	return userError("You do not have permission to "+action+".", ErrNotPermitted)
}
