package weather

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// SensorPayload is the decoded sensor list of a service response.
type SensorPayload struct {
	// Keys are the root object keys, sorted; kept for diagnostics.
	Keys []string
	// Readings has one entry per array element; elements without a numeric
	// value are absent.
	Readings []Celsius
}

// DecodeSensors parses a response body of the form
// {"sensors":[{"value": <number>, ...}, ...], ...}.
func DecodeSensors(body []byte) (SensorPayload, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return SensorPayload{}, fail(ErrDecode, err.Error())
	}
	if root == nil {
		// The body was a bare null.
		return SensorPayload{}, fail(ErrDecode, "document is not an object")
	}

	payload := SensorPayload{Keys: make([]string, 0, len(root))}
	for k := range root {
		payload.Keys = append(payload.Keys, k)
	}
	sort.Strings(payload.Keys)

	raw, ok := root["sensors"]
	if !ok {
		return payload, fail(ErrMissingSensorsField, "keys: "+strings.Join(payload.Keys, ","))
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return payload, fail(ErrInvalidSensorsType, "")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return payload, fail(ErrInvalidSensorsType, err.Error())
	}
	if len(elems) == 0 {
		return payload, fail(ErrEmptySensorArray, "")
	}

	payload.Readings = make([]Celsius, 0, len(elems))
	for _, elem := range elems {
		payload.Readings = append(payload.Readings, sensorValue(elem))
	}
	return payload, nil
}

// sensorValue extracts the numeric "value" of one sensor object. The key
// match is exact.
func sensorValue(elem json.RawMessage) Celsius {
	var sensor map[string]json.RawMessage
	if err := json.Unmarshal(elem, &sensor); err != nil {
		return None()
	}
	raw, ok := sensor["value"]
	if !ok {
		return None()
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return None()
	}
	return Some(*v)
}
