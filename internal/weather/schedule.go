package weather

import "time"

const (
	// RetryInterval applies while no usable reading is held.
	RetryInterval = 300 * time.Second

	minIntervalHours = 1
	maxIntervalHours = 24
)

// ClampInterval maps a configured hour count outside [1, 24] to 1.
func ClampInterval(hours int) int {
	if hours < minIntervalHours || hours > maxIntervalHours {
		return minIntervalHours
	}
	return hours
}

// EffectiveInterval is the time that has to pass since the last update
// before the next poll: RetryInterval after failures, the clamped configured
// interval otherwise.
func EffectiveInterval(st State, hours int) time.Duration {
	if !st.Current.Valid {
		return RetryInterval
	}
	return time.Duration(ClampInterval(hours)) * time.Hour
}

// IsUpdateDue decides whether a poll should run at now.
func IsUpdateDue(now time.Time, st State, hours int) bool {
	if st.LastUpdate == 0 {
		return true
	}
	elapsed := now.Unix() - st.LastUpdate
	return elapsed >= int64(EffectiveInterval(st, hours)/time.Second)
}

// NextDue returns when the next poll becomes due; the zero time means now.
func NextDue(st State, hours int) time.Time {
	if st.LastUpdate == 0 {
		return time.Time{}
	}
	return time.Unix(st.LastUpdate, 0).Add(EffectiveInterval(st, hours)).UTC()
}
