package entity

import "math"

type Room struct {
	Base
	Name         string   `db:"name"`
	PricePerHour int64    `db:"price_per_hour"` // fen
	Discount     *float64 `db:"discount"`       // 0 < d <= 1, nil = no discount
	IsAvailable  bool     `db:"is_available"`
}

// Quote prices a booking of the given length in whole minutes.
// original = price_per_hour * minutes / 60 rounded up to the fen.
func (r *Room) Quote(minutes int64) (original, discount, final int64) {
	original = (r.PricePerHour*minutes + 59) / 60
	final = original
	if r.Discount != nil && *r.Discount > 0 && *r.Discount < 1 {
		final = int64(math.Round(float64(original) * *r.Discount))
	}
	return original, original - final, final
}
