package weather

import "math"

// Aggregate averages the usable readings and rounds the mean to the nearest
// whole degree, ties away from zero (21.5 -> 22, -0.5 -> -1).
// Absent and non-finite readings are ignored.
func Aggregate(readings []Celsius) (float64, error) {
	mean, _, err := mean(readings)
	if err != nil {
		return 0, err
	}
	return math.Round(mean), nil
}

// mean returns the arithmetic mean of the usable readings and how many were used.
func mean(readings []Celsius) (float64, int, error) {
	var (
		sum   float64
		count int
	)
	for _, r := range readings {
		if !r.usable() {
			continue
		}
		sum += r.Value
		count++
	}
	if count == 0 {
		return 0, 0, ErrNoValidValues
	}
	return sum / float64(count), count, nil
}
