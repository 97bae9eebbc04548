package rates

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the only date format records carry once normalised.
const DateLayout = "2006-01-02"

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISODate reports whether s is exactly YYYY-MM-DD.
func IsISODate(s string) bool {
	return isoDate.MatchString(s)
}

// NormalizeDate trims a service timestamp such as 2024-05-01T00:00:00Z down to
// its date. Anything that does not start with a valid date is returned trimmed.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		if _, err := time.Parse(DateLayout, s[:10]); err == nil {
			return s[:10]
		}
	}
	return s
}

// Today is now's calendar date in now's location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
