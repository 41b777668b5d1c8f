package station

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Station is a single seismic intensity observation point.
//
// Fields this package does not know about are kept in Extra and written back
// on encode, in the order the source document had them, so a collection
// survives a load/save cycle unchanged.
type Station struct {
	Code       string
	Name       string
	Prefecture string
	Latitude   float64
	Longitude  float64
	Intensity  *float64

	Extra map[string]json.RawMessage

	// keys is the member order of the decoded document. It is nil when the
	// document used the default layout.
	keys []string
}

// JSON member names of the known fields. Matching is exact, so "Code" is an
// unknown field, not Code.
const (
	keyCode       = "code"
	keyName       = "name"
	keyPrefecture = "prefecture"
	keyLatitude   = "lat"
	keyLongitude  = "lon"
	keyIntensity  = "intensity"
)

func isKnownKey(key string) bool {
	switch key {
	case keyCode, keyName, keyPrefecture, keyLatitude, keyLongitude, keyIntensity:
		return true
	}
	return false
}

// knownValue returns the encoded value of a known field.
func (s Station) knownValue(key string) (json.RawMessage, error) {
	var v any
	switch key {
	case keyCode:
		v = s.Code
	case keyName:
		v = s.Name
	case keyPrefecture:
		v = s.Prefecture
	case keyLatitude:
		v = s.Latitude
	case keyLongitude:
		v = s.Longitude
	case keyIntensity:
		v = s.Intensity
	default:
		return nil, fmt.Errorf("unknown station field %q", key)
	}
	return json.Marshal(v)
}

// defaultKeys is the member order written for a station built in code:
// known fields first, then Extra sorted by name.
func (s Station) defaultKeys() []string {
	keys := []string{keyCode, keyName}
	if s.Prefecture != "" {
		keys = append(keys, keyPrefecture)
	}
	keys = append(keys, keyLatitude, keyLongitude)
	if s.Intensity != nil {
		keys = append(keys, keyIntensity)
	}
	return append(keys, sortedExtraKeys(s.Extra, nil)...)
}

func sortedExtraKeys(extra map[string]json.RawMessage, skip map[string]bool) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if !isKnownKey(k) && !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes the members of the source document in their original
// order, followed by any known field set since and any new Extra entries.
func (s Station) MarshalJSON() ([]byte, error) {
	keys := s.keys
	if keys == nil {
		keys = s.defaultKeys()
	} else {
		seen := make(map[string]bool, len(keys))
		for _, k := range keys {
			seen[k] = true
		}
		keys = append([]string(nil), keys...)
		for _, k := range []string{keyCode, keyName, keyPrefecture, keyLatitude, keyLongitude, keyIntensity} {
			if seen[k] || !s.isSet(k) {
				continue
			}
			keys = append(keys, k)
		}
		keys = append(keys, sortedExtraKeys(s.Extra, seen)...)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, k := range keys {
		var value json.RawMessage
		if isKnownKey(k) {
			data, err := s.knownValue(k)
			if err != nil {
				return nil, err
			}
			value = data
		} else {
			raw, ok := s.Extra[k]
			if !ok {
				continue
			}
			value = raw
			if len(value) == 0 {
				value = json.RawMessage("null")
			}
		}

		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s Station) isSet(key string) bool {
	switch key {
	case keyCode:
		return s.Code != ""
	case keyName:
		return s.Name != ""
	case keyPrefecture:
		return s.Prefecture != ""
	case keyLatitude:
		return s.Latitude != 0
	case keyLongitude:
		return s.Longitude != 0
	case keyIntensity:
		return s.Intensity != nil
	}
	return false
}

// UnmarshalJSON reads the known fields by exact member name and keeps every
// other member in Extra.
func (s *Station) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("station must be a JSON object, got %v", tok)
	}

	var (
		decoded Station
		keys    []string
		seen    = make(map[string]bool)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}

		if err := decoded.setField(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	if !sameKeys(keys, decoded.defaultKeys()) {
		decoded.keys = keys
	}
	*s = decoded
	return nil
}

func (s *Station) setField(key string, raw json.RawMessage) error {
	var target any
	switch key {
	case keyCode:
		target = &s.Code
	case keyName:
		target = &s.Name
	case keyPrefecture:
		target = &s.Prefecture
	case keyLatitude:
		target = &s.Latitude
	case keyLongitude:
		target = &s.Longitude
	case keyIntensity:
		target = &s.Intensity
	default:
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[key] = raw
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("station field %q: %w", key, err)
	}
	return nil
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate reports whether the station can be persisted.
func (s Station) Validate() error {
	if s.Code == "" {
		return fmt.Errorf("station %q has no code", s.Name)
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("station %s: latitude %f out of range", s.Code, s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("station %s: longitude %f out of range", s.Code, s.Longitude)
	}
	return nil
}
