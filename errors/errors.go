package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput            = fmt.Errorf("invalid input")
	ErrInvalidParticipantCount = fmt.Errorf("a conversation needs exactly two participants")
	ErrInvalidParticipants     = fmt.Errorf("a conversation needs exactly two valid participants")
	ErrInvalidCredentialFormat = fmt.Errorf("invalid username or password format")
	ErrEmptyContent            = fmt.Errorf("message content may not be blank")

	ErrInvalidCredentials = fmt.Errorf("no active account found with the given credentials")
	ErrInvalidToken       = fmt.Errorf("token is invalid or expired")
	ErrUnauthenticated    = fmt.Errorf("authentication credentials were not provided")

	ErrNotAParticipant  = fmt.Errorf("you are not a participant of this conversation")
	ErrNotMessageSender = fmt.Errorf("you are not the sender of this message")

	ErrUserNotFound         = fmt.Errorf("user not found")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrMessageNotFound      = fmt.Errorf("message not found")

	ErrConversationAlreadyExists = fmt.Errorf("a conversation already exists between these participants")
	ErrDuplicateUsername         = fmt.Errorf("a user with that username already exists")

	ErrTokenGeneration = fmt.Errorf("token generation failed")
)

var statuses = []struct {
	err    error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrInvalidParticipantCount, http.StatusBadRequest},
	{ErrInvalidParticipants, http.StatusBadRequest},
	{ErrInvalidCredentialFormat, http.StatusBadRequest},
	{ErrEmptyContent, http.StatusBadRequest},
	{ErrConversationAlreadyExists, http.StatusBadRequest},
	{ErrDuplicateUsername, http.StatusBadRequest},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrNotAParticipant, http.StatusForbidden},
	{ErrNotMessageSender, http.StatusForbidden},
	{ErrUserNotFound, http.StatusNotFound},
	{ErrConversationNotFound, http.StatusNotFound},
	{ErrMessageNotFound, http.StatusNotFound},
}

// HTTPStatus maps a domain error to the status code reported to the caller.
// Unknown errors are internal failures.
func HTTPStatus(err error) int {
	for _, s := range statuses {
		if stderrors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// IsInternal reports whether err is not part of the domain taxonomy.
func IsInternal(err error) bool {
	return HTTPStatus(err) == http.StatusInternalServerError
}
