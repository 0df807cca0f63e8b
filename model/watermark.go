package model

import (
	"fmt"
	"time"
)

const watermarkLayout = "2006-01-02T15:04:05Z"

// Watermark is a UTC timestamp with second precision and a literal Z. The
// format is fixed width, so string order equals chronological order.
type Watermark string

func NewWatermark(t time.Time) Watermark {
	return Watermark(t.UTC().Truncate(time.Second).Format(watermarkLayout))
}

// ParseWatermark accepts any RFC 3339 timestamp and renders it in the
// watermark format.
func ParseWatermark(s string) (Watermark, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	return NewWatermark(t), nil
}

func (w Watermark) After(other Watermark) bool {
	return w > other
}

func (w Watermark) String() string {
	return string(w)
}
