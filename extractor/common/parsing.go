package common

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var amountJunkRegex = regexp.MustCompile(`[^0-9.-]`)

// CleanAmount parses a monetary string into a decimal.Decimal, stripping
// currency glyphs, thousands separators and any other character that is not
// a digit, '.' or '-'. Unparsable input yields decimal.Zero together with the
// parse error so callers can count it; the value is always usable.
func CleanAmount(text string) (decimal.Decimal, error) {
	cleaned := amountJunkRegex.ReplaceAllString(text, "")
	if cleaned == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// timeLayouts covers the datetime shapes observed across both providers'
// exports. Order matters: the most specific layouts come first.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	"2006-1-2",
	"2006/1/2",
}

// ParseTime parses a transaction timestamp permissively. It returns nil when
// no known layout matches; an unparsable time is a counted anomaly, not an
// error.
func ParseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// MonthKey formats a transaction time as its YYYY-MM bucket.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

var monthPattern = regexp.MustCompile(`\d{4}[-/]?(1[0-2]|0?[1-9])`)

// MonthFromRaw recovers a YYYY-MM bucket from time text that failed regular
// parsing. This is a deliberately separate fallback path from ParseTime so
// its behavior stays testable in isolation. Returns "" when the text carries
// no recognizable year-month.
func MonthFromRaw(raw string) string {
	match := monthPattern.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	year := match[0][:4]
	month := match[1]
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month
}
