package stats

import (
	"strconv"
	"strings"
	"time"
)

// ParsePrice normalizes a storefront price string to a number.
//
// Prices starting with "Free" are zero. Currency symbols and codes are
// dropped, and both "1,299.99" and "9,99€" style separators are understood.
// Returns ok=false for sentinels such as "Unknown" or any other text without
// a readable amount.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "free") {
		return 0, true
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	num := strings.Trim(b.String(), ".,")
	if num == "" || !strings.ContainsAny(num, "0123456789") {
		return 0, false
	}

	lastDot := strings.LastIndex(num, ".")
	lastComma := strings.LastIndex(num, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			num = strings.ReplaceAll(num, ",", "")
		} else {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		}
	case lastComma >= 0:
		if strings.Count(num, ",") == 1 && len(num)-lastComma-1 == 2 {
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case strings.Count(num, ".") > 1:
		num = strings.ReplaceAll(num, ".", "")
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// releaseLayouts are the date formats the store renders, most specific first.
var releaseLayouts = []string{
	"2 Jan, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2 January, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2006-01-02",
	"Jan 2006",
	"January 2006",
	"Jan, 2006",
	"2006",
}

// ParseReleaseDate parses a loosely formatted release date. Returns ok=false
// for sentinels and announcements such as "Coming soon" or "Q3 2025".
func ParseReleaseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
