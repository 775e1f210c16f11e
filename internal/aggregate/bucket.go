package aggregate

import (
	"fmt"
	"strings"

	"tutorbook/internal/core"
)

// BucketFunc derives the grouping label of a date.
type BucketFunc func(core.Date) string

// Bucketing names a BucketFunc in configuration.
type Bucketing string

const (
	// BucketMonth groups by English month name; the same month of different
	// years shares one bucket.
	BucketMonth Bucketing = "month"
	// BucketMonthYear groups by month and year.
	BucketMonthYear Bucketing = "month_year"
)

// ByMonthName labels a date with its long English month name.
func ByMonthName(d core.Date) string {
	return d.Time.Month().String()
}

// ByMonthYear labels a date like "January 2024".
func ByMonthYear(d core.Date) string {
	return fmt.Sprintf("%s %d", d.Time.Month(), d.Time.Year())
}

func ParseBucketing(s string) (Bucketing, error) {
	switch b := Bucketing(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BucketMonth, nil
	case BucketMonth, BucketMonthYear:
		return b, nil
	default:
		return "", fmt.Errorf("unknown bucketing %q (want %s or %s)", s, BucketMonth, BucketMonthYear)
	}
}

func (b Bucketing) Func() BucketFunc {
	if b == BucketMonthYear {
		return ByMonthYear
	}
	return ByMonthName
}

func (b Bucketing) String() string { return string(b) }
