package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"participant count", ErrInvalidParticipantCount, http.StatusBadRequest},
		{"not a participant", ErrNotAParticipant, http.StatusForbidden},
		{"duplicate conversation", ErrConversationAlreadyExists, http.StatusBadRequest},
		{"not the sender", ErrNotMessageSender, http.StatusForbidden},
		{"missing message", ErrMessageNotFound, http.StatusNotFound},
		{"bad token", ErrInvalidToken, http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("%w: username too long", ErrInvalidCredentialFormat), http.StatusBadRequest},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIsInternal(t *testing.T) {
	req := require.New(t)
	req.True(IsInternal(fmt.Errorf("boom")))
	req.False(IsInternal(ErrConversationNotFound))
}
