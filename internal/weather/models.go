package weather

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Celsius is an optional temperature in degrees Celsius.
// The zero value is "absent".
type Celsius struct {
	Value float64
	Valid bool
}

// Some returns a present temperature.
func Some(v float64) Celsius {
	return Celsius{Value: v, Valid: true}
}

// None returns an absent temperature.
func None() Celsius {
	return Celsius{}
}

// usable reports whether c holds a finite value.
func (c Celsius) usable() bool {
	return c.Valid && !math.IsNaN(c.Value) && !math.IsInf(c.Value, 0)
}

func (c Celsius) String() string {
	if !c.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// MarshalJSON encodes an absent temperature as null.
func (c Celsius) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON decodes null as an absent temperature.
func (c *Celsius) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Some(v)
	return nil
}

// ToFahrenheit converts a Celsius reading; absent stays absent.
func ToFahrenheit(c Celsius) Celsius {
	if !c.Valid {
		return None()
	}
	return Some(c.Value*9/5 + 32)
}

// State is the record retained across device suspend/resume.
// LastUpdate is unix seconds; 0 means no successful update yet.
type State struct {
	Current    Celsius `json:"currentTemperature"`
	Previous   Celsius `json:"previousTemperature"`
	LastUpdate int64   `json:"lastUpdateTimestamp"`
}

// Advance returns the state after a successful aggregate t observed at now.
func (s State) Advance(t float64, now time.Time) State {
	return State{
		Current:    Some(t),
		Previous:   s.Current,
		LastUpdate: now.Unix(),
	}
}

// TemperatureChange is Current-Previous, absent unless both are present.
func (s State) TemperatureChange() Celsius {
	if !s.Current.Valid || !s.Previous.Valid {
		return None()
	}
	return Some(s.Current.Value - s.Previous.Value)
}

// Stale reports that no usable reading is held.
func (s State) Stale() bool {
	return !s.Current.Valid
}

// LastUpdateTime returns the zero time when the state was never updated.
func (s State) LastUpdateTime() time.Time {
	if s.LastUpdate == 0 {
		return time.Time{}
	}
	return time.Unix(s.LastUpdate, 0).UTC()
}

// Snapshot is one successful update kept in the history store.
type Snapshot struct {
	PollID      string    `json:"pollId"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Mean        float64   `json:"meanC"`
	Sensors     int       `json:"sensors"`
	Used        int       `json:"used"`
}
