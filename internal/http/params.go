package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"emotion-diary/internal/domain"
)

// optionalTime lee un parámetro de query opcional.
func optionalTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseLimit(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}
