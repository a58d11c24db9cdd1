package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"room-booking/pkg/apperr"
)

func TestResponseError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "conflict keeps detail",
			err:         apperr.New(apperr.KindConflict, "Room is already booked for this time"),
			wantStatus:  http.StatusConflict,
			wantCode:    "conflict",
			wantMessage: "Room is already booked for this time",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("cancel: %w", apperr.New(apperr.KindNotFound, "Booking not found")),
			wantStatus:  http.StatusNotFound,
			wantCode:    "not_found",
			wantMessage: "Booking not found",
		},
		{
			name:        "internal hides cause",
			err:         errors.New("pq: connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal",
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ResponseError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}

			var body Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status {
				t.Error("status field = true; want false")
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q; want %q", body.Code, tt.wantCode)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q; want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "valid", header: "Bearer abc.def", want: "abc.def", wantOK: true},
		{name: "lowercase scheme", header: "bearer abc", want: "abc", wantOK: true},
		{name: "missing", header: "", wantOK: false},
		{name: "wrong scheme", header: "Basic abc", wantOK: false},
		{name: "no token", header: "Bearer ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(r)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("BearerToken() = (%q, %v); want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
