package report

import (
	"strconv"
	"strings"
)

const (
	DefaultDays = 30
	MinDays     = 1
	MaxDays     = 90

	DefaultMonths = 12
	MinMonths     = 3
	MaxMonths     = 24
)

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// ClampDays bounds a daily window length to [MinDays, MaxDays].
func ClampDays(n int) int { return clamp(n, MinDays, MaxDays) }

// ClampMonths bounds a trend length to [MinMonths, MaxMonths].
func ClampMonths(n int) int { return clamp(n, MinMonths, MaxMonths) }

// ParseDays parses and clamps a raw days parameter. Absent or non-integer
// input yields DefaultDays.
func ParseDays(raw string) int {
	return ClampDays(parseIntOr(raw, DefaultDays))
}

// ParseMonths parses and clamps a raw months parameter. Absent or
// non-integer input yields DefaultMonths.
func ParseMonths(raw string) int {
	return ClampMonths(parseIntOr(raw, DefaultMonths))
}

func parseIntOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}
