package signals

import (
	"math"
	"time"
)

const msPerDay = 86_400_000

// daysSince is the whole number of days from t to now, floored. Rows dated
// after now give negative values.
func daysSince(now, t time.Time) int {
	return int(math.Floor(float64(now.Sub(t).Milliseconds()) / msPerDay))
}

// gapDays is the distance between two rows in days, rounded to the nearest
// day. Gaps round where daysSince floors: a row from this morning is still
// zero days old, while two rides 3.6 days apart read as a 4 day break.
// Workload windows and break labels depend on this pairing.
func gapDays(from, to time.Time) int {
	return int(math.Round(float64(to.Sub(from).Milliseconds()) / msPerDay))
}
