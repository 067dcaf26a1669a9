package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// StorageZone is the reference timezone for persisted timestamps.
var StorageZone = time.UTC

// FlexTime accepts RFC3339 timestamps as well as the zone-less timestamps
// produced by historical capture forms. A value without a zone designation
// is interpreted as already being in the storage reference zone; the clock
// value is never shifted.
type FlexTime struct {
	time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range flexLayouts {
		if parsed, err := time.ParseInLocation(layout, s, StorageZone); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported time format %q", s)
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}
