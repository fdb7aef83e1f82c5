package querysql

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/araddon/dateparse"
)

// dateLike matches literals that start with an ISO calendar date. Other
// strings are never handed to the date parser, so "yesterday" or a name
// containing digits stays a string parameter.
var dateLike = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// parseDate converts a date-like literal to a UTC time. Naive values are
// read as UTC.
func parseDate(s string) (time.Time, bool) {
	if !dateLike.MatchString(s) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		slog.Debug("unparseable date literal", "value", s, "error", err)
		return time.Time{}, false
	}
	return t.UTC(), true
}
