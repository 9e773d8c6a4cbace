package services

import (
	"time"

	"github.com/araddon/dateparse"

	"homescout/models"
)

// DisplayTime resolves the timestamp shown on a notification: updated wins
// over posted. The second return is false when neither is present.
func (c *Calculator) DisplayTime(l *models.Listing) (time.Time, bool) {
	if l.Updated != nil {
		return *l.Updated, true
	}
	if l.Posted != nil {
		return *l.Posted, true
	}
	return time.Time{}, false
}

// InsertTime resolves the source_date stored on the dedup record: the raw
// summary-row datetime when the source supplied one, else the configured
// fallback epoch. A raw string that fails to parse also falls back; the
// original behavior here was ambiguous and the fallback is the documented
// resolution.
func (c *Calculator) InsertTime(l *models.Listing) int64 {
	if l.RawDate != "" {
		if t, err := dateparse.ParseAny(l.RawDate); err == nil {
			return t.Unix()
		}
	}
	return c.InsertTimeFallback
}

// AvailabilityLabel renders the move-in date: "Now" when it is at or before
// the current time, an abbreviated month/day otherwise, "N/A" when absent.
func (c *Calculator) AvailabilityLabel(l *models.Listing) string {
	if l.Availability == nil {
		return "N/A"
	}
	if !l.Availability.After(c.Now()) {
		return "Now"
	}
	return l.Availability.Format("Jan 02")
}

// AreaLabel strips the square-footage unit suffix for the field grid.
func AreaLabel(l *models.Listing) string {
	if l.Area == "" {
		return "N/A"
	}
	s := l.Area
	for _, suffix := range []string{"ft2", "sqft", "sq ft"} {
		if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
			s = s[:len(s)-len(suffix)]
			break
		}
	}
	return trimRightSpace(s)
}

func trimRightSpace(s string) string {
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}
