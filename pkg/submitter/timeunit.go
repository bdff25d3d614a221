package submitter

import (
	"fmt"
	"strings"
	"time"
)

var namedUnits = map[string]time.Duration{
	"nanosecond":  time.Nanosecond,
	"microsecond": time.Microsecond,
	"millisecond": time.Millisecond,
	"second":      time.Second,
	"minute":      time.Minute,
	"hour":        time.Hour,
	"day":         24 * time.Hour,
}

// ParseTimeUnit accepts a unit name ("second", "MINUTES", "day") or a Go duration ("1500ms").
func ParseTimeUnit(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("time unit is empty")
	}

	if d, ok := namedUnits[strings.TrimSuffix(s, "s")]; ok {
		return d, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unknown time unit %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("time unit must be positive, got %q", raw)
	}
	return d, nil
}
