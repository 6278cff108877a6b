package signaling

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/protocol"
)

func TestJoinFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("join R1: %w", interview.ErrInvalidPasskey), protocol.ReasonInvalidPasskey},
		{fmt.Errorf("join R1: %w", interview.ErrRoomFull), protocol.ReasonRoomFull},
		{fmt.Errorf("join R1: %w", interview.ErrInvalidUser), protocol.ReasonInvalidUser},
		{bcrypt.ErrPasswordTooLong, protocol.ReasonJoinFailed},
		{errors.New("boom"), protocol.ReasonJoinFailed},
	}
	for _, tt := range tests {
		if got := joinFailureReason(tt.err); got != tt.want {
			t.Errorf("joinFailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
