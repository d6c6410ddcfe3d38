package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSize parses a human-readable size ("10MB", "512KB", "2GB", "4096")
// into bytes. Units are binary multiples.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("util: empty size")
	}

	var multiplier int64 = 1
	for _, u := range []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(s, u.suffix) {
			multiplier = u.mult
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("util: invalid size %q", s)
	}
	return val * multiplier, nil
}

// ParseSizeOr is ParseSize falling back to defaultBytes on error.
func ParseSizeOr(s string, defaultBytes int64) int64 {
	n, err := ParseSize(s)
	if err != nil {
		return defaultBytes
	}
	return n
}

// MaskSecret hides all but the first visiblePrefix characters of s for
// display in logs. Strings no longer than the prefix are fully masked.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
