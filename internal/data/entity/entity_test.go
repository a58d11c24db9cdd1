package entity

import (
	"testing"
	"time"
)

func TestRoomQuote(t *testing.T) {
	half := 0.5
	ninety := 0.9
	one := 1.0

	tests := []struct {
		name         string
		room         Room
		minutes      int64
		wantOriginal int64
		wantDiscount int64
		wantFinal    int64
	}{
		{name: "two hours no discount", room: Room{PricePerHour: 6000}, minutes: 120, wantOriginal: 12000, wantFinal: 12000},
		{name: "half price", room: Room{PricePerHour: 6000, Discount: &half}, minutes: 60, wantOriginal: 6000, wantDiscount: 3000, wantFinal: 3000},
		{name: "partial hour rounds up", room: Room{PricePerHour: 100}, minutes: 1, wantOriginal: 2, wantFinal: 2},
		{name: "ninety percent", room: Room{PricePerHour: 3333, Discount: &ninety}, minutes: 90, wantOriginal: 5000, wantDiscount: 500, wantFinal: 4500},
		{name: "discount of one ignored", room: Room{PricePerHour: 6000, Discount: &one}, minutes: 30, wantOriginal: 3000, wantFinal: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, d, f := tt.room.Quote(tt.minutes)
			if o != tt.wantOriginal || d != tt.wantDiscount || f != tt.wantFinal {
				t.Errorf("Quote(%d) = (%d, %d, %d); want (%d, %d, %d)",
					tt.minutes, o, d, f, tt.wantOriginal, tt.wantDiscount, tt.wantFinal)
			}
		})
	}
}

func TestBookingMinutes(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	b := Booking{StartTime: start, EndTime: start.Add(90*time.Minute + 10*time.Second)}
	if got := b.Minutes(); got != 91 {
		t.Errorf("Minutes() = %d; want 91", got)
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	if BookingStatusPending.Terminal() || BookingStatusConfirmed.Terminal() {
		t.Error("pending/confirmed must not be terminal")
	}
	if !BookingStatusCancelled.Terminal() || !BookingStatusCompleted.Terminal() {
		t.Error("cancelled/completed must be terminal")
	}
	if BookingStatus("expired").Valid() {
		t.Error("unknown status reported valid")
	}
}
