// Package parse centralizes the degrade-not-fail validation helpers shared
// by every domain collector: raw tool output is validated against a strict
// pattern and coerced to a typed default on mismatch, never propagated as
// an error.
package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// decimalRe is the single strict non-negative decimal validator used by
	// every domain (one optional fractional part, no signs, no exponents).
	decimalRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

	integerRe = regexp.MustCompile(`^\d+$`)

	// percentRe scans a whole line for a "<digits>%" token.
	percentRe = regexp.MustCompile(`(\d+)%`)
)

// Decimal validates raw against the non-negative decimal pattern and parses
// it. Malformed or empty input yields def.
func Decimal(raw string, def float64) float64 {
	s := strings.TrimSpace(raw)
	if !decimalRe.MatchString(s) {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// Uint validates raw against the non-negative integer pattern and parses it.
// Malformed input yields 0.
func Uint(raw string) uint64 {
	s := strings.TrimSpace(raw)
	if !integerRe.MatchString(s) {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Percent extracts a 0-100 use-percent figure, degrading through three tiers:
// the column value with its trailing "%" stripped, a scan of the whole line
// for a "<digits>%" token, and finally 0.
func Percent(field, line string) float64 {
	s := strings.TrimSuffix(strings.TrimSpace(field), "%")
	if decimalRe.MatchString(s) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	if m := percentRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	return 0
}

// Round1 rounds to one decimal place, the precision used for usage percents.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// HumanSize renders a byte count the way the disk tools do, walking
// B→K→M→G→T in powers of 1024 with one decimal.
func HumanSize(bytes uint64) string {
	const unit = 1024.0
	v := float64(bytes)
	for _, suffix := range []string{"B", "K", "M", "G"} {
		if v < unit {
			return fmt.Sprintf("%.1f%s", v, suffix)
		}
		v /= unit
	}
	return fmt.Sprintf("%.1fT", v)
}
