package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeJSON decodes data into v, rejecting unknown object members when
// strict is true (spec.md's check_unexpected_members option: malformed
// or renamed-field model/rule documents should fail loudly rather than
// silently drop data).
func DecodeJSON(data []byte, v interface{}, strict bool) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
