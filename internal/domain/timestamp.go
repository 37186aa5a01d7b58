package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// timestampLayouts cubre RFC3339 y las formas ISO sin zona que envían relojes y clientes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp interpreta los valores sin zona como UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// FlexibleTime acepta en JSON los mismos formatos que ParseTimestamp.
type FlexibleTime struct {
	time.Time
}

func (f *FlexibleTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// SamplePayload es una muestra tal como llega por HTTP o MQTT.
type SamplePayload struct {
	WatchSample
	Timestamp *FlexibleTime `json:"timestamp"`
}

// Sample descarta el id del cliente; sin timestamp queda en cero para que el servicio lo complete.
func (p SamplePayload) Sample() WatchSample {
	s := p.WatchSample
	s.ID = ""
	if p.Timestamp != nil {
		s.Timestamp = p.Timestamp.Time
	}
	return s
}
