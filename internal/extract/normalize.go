package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Cap rates and occupancies are stored as decimals (0.055, 0.95), never as
// raw percentages. The cutoffs below decide whether a bare number is already
// a decimal: a cap rate of 0.3 or an occupancy above 1.5 does not exist in
// this asset class, so anything at or above the cutoff is a percentage.
// Applying the conversion twice is a bug class this guards against — values
// below the cutoff pass through untouched.
const (
	capRateDecimalCutoff   = 0.3
	occupancyDecimalCutoff = 1.5
)

// sentinels are strings that always normalize to nil, never to zero.
var sentinels = map[string]bool{
	"":        true,
	"-":       true,
	"--":      true,
	"—":       true,
	"n/a":     true,
	"na":      true,
	"nm":      true,
	"tbd":     true,
	"unk":     true,
	"unknown": true,
	"pending": true,
}

var millionSuffix = regexp.MustCompile(`(?i)^\s*([\d.,]+)\s*(m|mm|million)\s*$`)

var moneyCleaner = strings.NewReplacer("$", "", ",", "", "(", "-", ")", "")

// IsSentinel reports whether a raw cell value means "no data".
func IsSentinel(s string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(s))]
}

// ParseMoney converts a raw monetary cell to a float. "M"/"MM"/"million"
// suffixes scale by 1e6. Sentinels return (nil, nil); anything else that
// fails to parse is a loud error, never a silent zero.
func ParseMoney(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return nil, nil
	}

	if m := millionSuffix.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(moneyCleaner.Replace(m[1]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "normalize: money %q", raw)
		}
		v *= 1e6
		return &v, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(moneyCleaner.Replace(s)), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: money %q", raw)
	}
	return &v, nil
}

// ParseCapRate converts a raw cap-rate cell to a decimal.
func ParseCapRate(raw string) (*float64, error) {
	return parseRate(raw, capRateDecimalCutoff)
}

// ParseOccupancy converts a raw occupancy cell to a decimal.
func ParseOccupancy(raw string) (*float64, error) {
	return parseRate(raw, occupancyDecimalCutoff)
}

// parseRate normalizes a percentage-or-decimal cell. An explicit "%" always
// divides by 100 exactly once; a bare number divides only when its magnitude
// implies a percentage (>= cutoff).
func parseRate(raw string, cutoff float64) (*float64, error) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return nil, nil
	}

	explicit := strings.Contains(s, "%")
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: rate %q", raw)
	}

	if explicit || v >= cutoff {
		v /= 100
	}
	return &v, nil
}

// dateFormats is the ordered list of accepted date layouts; first match wins.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan-06",
	"Jan 2006",
	"January 2006",
	"2006-01-02T15:04:05Z07:00",
	"01/2006",
	"2006",
}

// ParseDate converts a raw date cell to a time. Sentinels return (nil, nil).
func ParseDate(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return nil, nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, eris.Errorf("normalize: unrecognized date %q", raw)
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseYear extracts a 4-digit year from a cell like "1987" or
// "1987 (reno 2019)". The first year wins.
func ParseYear(raw string) *int {
	if IsSentinel(raw) {
		return nil
	}
	if m := yearPattern.FindString(raw); m != "" {
		y, _ := strconv.Atoi(m)
		return &y
	}
	return nil
}

// ParseCount converts a raw integer cell (unit counts, etc).
func ParseCount(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: count %q", raw)
	}
	n := int(v)
	return &n, nil
}

// ParseFloat converts a plain numeric cell (square feet, rents).
func ParseFloat(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if IsSentinel(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(moneyCleaner.Replace(s), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: number %q", raw)
	}
	return &v, nil
}
