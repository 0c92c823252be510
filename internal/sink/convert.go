package sink

import (
	"time"

	"github.com/moznion/go-optional"
)

// nullableFloat maps an absent value to SQL NULL.
func nullableFloat(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}
	return v.Unwrap()
}

func nullableTime(v optional.Option[time.Time]) any {
	if v.IsNone() {
		return nil
	}
	return v.Unwrap()
}
