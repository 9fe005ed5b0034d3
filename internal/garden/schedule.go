package garden

import (
	"strings"
	"time"

	"github.com/i474232898/waterwise/internal/weather"
)

// Recommendations returned by NextWaterDate besides a formatted date.
const (
	NextWaterToday       = "Today"
	NextWaterTomorrow    = "Tomorrow"
	NextWaterInvalidDate = "Invalid date"
)

// nextWaterLayout renders an abbreviated month and day, e.g. "Oct 21".
const nextWaterLayout = "Jan 2"

var lastWateredLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseLastWatered parses a stored last-watered instant. Values without a
// zone offset (date-only or zone-less datetimes) are read in loc.
func ParseLastWatered(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range lastWateredLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NextWaterDate recommends when a plant should be watered next.
//
// The candidate day is the last watering date plus the class interval. The
// first forecast day on or after the candidate with at least 50% rain moves
// the recommendation to that day. "Local" is now's location.
func NextWaterDate(lastWatered string, class WateringFrequency, forecast []weather.DaySummary, now time.Time) string {
	if strings.TrimSpace(lastWatered) == "" {
		return NextWaterToday
	}

	loc := now.Location()
	last, ok := ParseLastWatered(lastWatered, loc)
	if !ok {
		return NextWaterInvalidDate
	}

	candidate := midnight(last.In(loc)).AddDate(0, 0, class.IntervalDays())

	for _, day := range forecast {
		d, ok := summaryDay(day, loc)
		if !ok {
			continue
		}
		if !d.Before(candidate) && CanWaterWithRain(day.AveragePrecipitationPercent) {
			candidate = d
			break
		}
	}

	today := midnight(now)
	switch {
	case !candidate.After(today):
		return NextWaterToday
	case candidate.Equal(today.AddDate(0, 0, 1)):
		return NextWaterTomorrow
	default:
		return candidate.Format(nextWaterLayout)
	}
}

// summaryDay returns the local midnight of a forecast day, falling back to the
// "2006-01-02" key when the summary was decoded from JSON.
func summaryDay(day weather.DaySummary, loc *time.Location) (time.Time, bool) {
	if !day.Date.IsZero() {
		return midnight(day.Date.In(loc)), true
	}
	t, err := time.ParseInLocation("2006-01-02", day.Day, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
