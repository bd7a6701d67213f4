package parser

import (
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
)

var (
	sizeRegex   = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)
	hexHash     = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	base32Hash  = regexp.MustCompile(`^[A-Za-z2-7]{32}$`)
	agoRegex    = regexp.MustCompile(`(?i)^(\d+)\s*(sec|min|hour)s?\.?\s+ago$`)
	todayRegex  = regexp.MustCompile(`(?i)^today\s+(\d{1,2}:\d{2})$`)
	ydayRegex   = regexp.MustCompile(`(?i)^y-?day\s+(\d{1,2}:\d{2})$`)
	spaceRegex  = regexp.MustCompile(`\s+`)
	placeholder = strings.Repeat("0", 40)
)

// binary multiples, factor 1024 per step
var sizeUnits = map[string]float64{
	"b":   1,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
}

var absoluteLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01-02 2006",
}

// normalizeSpaces folds non-breaking spaces and runs of whitespace.
func normalizeSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// ParseSize converts "1.2 GiB" style strings to bytes. A bare integer is a
// byte count. Unknown units are an error rather than a silent zero.
func ParseSize(s string) (int64, error) {
	s = normalizeSpaces(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", tpberrors.ErrMalformedSize)
	}

	matches := sizeRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", tpberrors.ErrMalformedSize, s)
	}
	number, unit := matches[1], strings.ToLower(matches[2])

	if unit == "" {
		if strings.Contains(number, ".") {
			return 0, fmt.Errorf("%w: fractional byte count %q", tpberrors.ErrMalformedSize, s)
		}
		n, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", tpberrors.ErrMalformedSize, err)
		}
		return n, nil
	}

	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q", tpberrors.ErrUnknownSizeUnit, matches[2])
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", tpberrors.ErrMalformedSize, err)
	}
	bytes := math.Round(value * multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", tpberrors.ErrMalformedSize, s)
	}
	return int64(bytes), nil
}

// ParseCount parses a non-negative integer. An empty value means zero.
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", tpberrors.ErrNonNumericCount, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", tpberrors.ErrNegativeCount, n)
	}
	return n, nil
}

// NormalizeInfoHash validates a 40-char hex or 32-char base32 hash and
// returns it as lowercase hex. The all-zero placeholder and an empty value
// both mean "no hash".
func NormalizeInfoHash(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == placeholder:
		return "", nil
	case hexHash.MatchString(s):
		return strings.ToLower(s), nil
	case base32Hash.MatchString(s):
		raw, err := base32.StdEncoding.DecodeString(strings.ToUpper(s))
		if err != nil {
			return "", fmt.Errorf("%w: %v", tpberrors.ErrMalformedHash, err)
		}
		return hex.EncodeToString(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", tpberrors.ErrMalformedHash, s)
	}
}

// ExtractInfoHash prefers the magnet's btih value over the bare hash field.
func ExtractInfoHash(hashField, magnet string) (string, error) {
	magnet = strings.TrimSpace(magnet)
	if magnet == "" {
		return NormalizeInfoHash(hashField)
	}

	const prefix = "magnet:?"
	if !strings.HasPrefix(strings.ToLower(magnet), prefix) {
		return "", fmt.Errorf("%w: not a magnet URI", tpberrors.ErrMalformedHash)
	}
	values, err := url.ParseQuery(magnet[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("%w: %v", tpberrors.ErrMalformedHash, err)
	}
	for _, xt := range values["xt"] {
		if len(xt) > len("urn:btih:") && strings.EqualFold(xt[:len("urn:btih:")], "urn:btih:") {
			hash, err := NormalizeInfoHash(xt[len("urn:btih:"):])
			if err != nil {
				return "", err
			}
			if hash == "" {
				break
			}
			return hash, nil
		}
	}
	return "", fmt.Errorf("%w: magnet has no btih", tpberrors.ErrMalformedHash)
}

// ParseTimestamp is best effort. It returns the zero time when s matches
// none of the formats the site has used.
func ParseTimestamp(s string, now time.Time) time.Time {
	s = normalizeSpaces(s)
	if s == "" {
		return time.Time{}
	}
	now = now.UTC()

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs <= 0 {
			return time.Time{}
		}
		return time.Unix(secs, 0).UTC()
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}

	// "03-14 12:30" is within the last twelve months
	if t, err := time.Parse("01-02 15:04", s); err == nil {
		t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
		if t.After(now) {
			t = t.AddDate(-1, 0, 0)
		}
		return t
	}

	if m := todayRegex.FindStringSubmatch(s); m != nil {
		return atClock(now, m[1])
	}
	if m := ydayRegex.FindStringSubmatch(s); m != nil {
		return atClock(now.AddDate(0, 0, -1), m[1])
	}

	if m := agoRegex.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := map[string]time.Duration{
			"sec":  time.Second,
			"min":  time.Minute,
			"hour": time.Hour,
		}[strings.ToLower(m[2])]
		return now.Add(-time.Duration(n) * unit)
	}

	return time.Time{}
}

func atClock(day time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
