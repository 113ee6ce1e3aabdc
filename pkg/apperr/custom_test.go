package apperr

import (
	"errors"
	"strings"
	"testing"
)

func TestNakError(t *testing.T) {
	t.Run("Error message with cause", func(t *testing.T) {
		err := NewNakError(42, 503)
		got := err.Error()
		if !strings.Contains(got, "code=42") {
			t.Errorf("error message should contain 'code=42': %s", got)
		}
		if !strings.Contains(got, "error_cause=503") {
			t.Errorf("error message should contain 'error_cause=503': %s", got)
		}
	})

	t.Run("Error message without cause", func(t *testing.T) {
		err := NewNakError(45, 0)
		got := err.Error()
		if !strings.Contains(got, "code=45") {
			t.Errorf("error message should contain 'code=45': %s", got)
		}
		if strings.Contains(got, "error_cause") {
			t.Errorf("error message should omit error_cause when zero: %s", got)
		}
	})

	t.Run("Unwraps to ErrCoANak", func(t *testing.T) {
		err := NewNakError(42, 503)
		if !errors.Is(err, ErrCoANak) {
			t.Error("errors.Is(err, ErrCoANak) = false, want true")
		}
		if errors.Is(err, ErrCoATimeout) {
			t.Error("NAK must not match ErrCoATimeout")
		}
	})

	t.Run("Fields via errors.As", func(t *testing.T) {
		var nak *NakError
		err := error(NewNakError(42, 506))
		if !errors.As(err, &nak) {
			t.Fatal("errors.As failed")
		}
		if nak.Code != 42 || nak.ErrorCause != 506 {
			t.Errorf("NakError = %+v, want Code=42 ErrorCause=506", nak)
		}
	})
}

func TestMalformedError(t *testing.T) {
	err := NewMalformedError("packet too short: 3 bytes")

	if !errors.Is(err, ErrMalformedPacket) {
		t.Error("errors.Is(err, ErrMalformedPacket) = false, want true")
	}
	if !strings.Contains(err.Error(), "packet too short") {
		t.Errorf("error message should contain reason: %s", err.Error())
	}
}
