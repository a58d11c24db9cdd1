package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "direct error",
			err:      New(KindConflict, "slot taken"),
			expected: KindConflict,
		},
		{
			name:     "wrapped with fmt",
			err:      fmt.Errorf("create booking: %w", New(KindNotFound, "room not found")),
			expected: KindNotFound,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: KindInternal,
		},
		{
			name:     "validation helper",
			err:      Validation(map[string]string{"RoomID": "This field is required"}),
			expected: KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindGatewayUnavail, cause, "payment gateway unreachable")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable through errors.Is")
	}
	if !Is(err, KindGatewayUnavail) {
		t.Errorf("Is() = false; want true")
	}
	if Is(nil, KindInternal) {
		t.Errorf("Is(nil) = true; want false")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindInvalidState, http.StatusUnprocessableEntity},
		{KindGatewayUnavail, http.StatusServiceUnavailable},
		{KindPaymentGateway, http.StatusBadGateway},
		{KindIdentityProvider, http.StatusBadGateway},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := HTTPStatus(tt.kind); got != tt.expected {
				t.Errorf("HTTPStatus(%q) = %d; want %d", tt.kind, got, tt.expected)
			}
		})
	}
}
