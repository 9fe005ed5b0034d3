package garden

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/waterwise/internal/weather"
)

func day(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func summary(date time.Time, pct float64) weather.DaySummary {
	return weather.DaySummary{
		Date:                        date,
		Day:                         date.Format("2006-01-02"),
		AveragePrecipitationPercent: pct,
	}
}

func TestNextWaterDate(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)
	today := day(2026, 10, 19, time.UTC)

	dry := []weather.DaySummary{
		summary(today, 10),
		summary(today.AddDate(0, 0, 1), 20),
		summary(today.AddDate(0, 0, 2), 30),
		summary(today.AddDate(0, 0, 3), 0),
		summary(today.AddDate(0, 0, 4), 49.9),
	}

	tests := []struct {
		name        string
		lastWatered string
		class       WateringFrequency
		forecast    []weather.DaySummary
		want        string
	}{
		{"never watered", "", WateringMinimum, dry, NextWaterToday},
		{"unparseable timestamp", "last tuesday", WateringAverage, dry, NextWaterInvalidDate},
		{"average interval elapsed", "2026-10-15T08:00:00.000Z", WateringAverage, dry, NextWaterToday},
		{"long overdue", "2026-09-01T08:00:00Z", WateringFrequent, nil, NextWaterToday},
		{"due tomorrow", "2026-10-16T23:59:00Z", WateringAverage, dry, NextWaterTomorrow},
		{"minimum watered today", "2026-10-19T07:00:00Z", WateringMinimum, dry, "Oct 26"},
		{"unknown class waters like average", "2026-10-19T07:00:00Z", "sometimes", nil, "Oct 23"},
		{"class is case-insensitive", "2026-10-19T07:00:00Z", "Frequent", nil, "Oct 21"},
		{"date-only timestamp", "2026-10-18", WateringFrequent, nil, NextWaterTomorrow},
		{
			name:        "rain on the candidate day keeps it",
			lastWatered: "2026-10-19T07:00:00Z",
			class:       WateringFrequent,
			forecast: []weather.DaySummary{
				summary(today, 10),
				summary(today.AddDate(0, 0, 1), 10),
				summary(today.AddDate(0, 0, 2), 60),
			},
			want: "Oct 21",
		},
		{
			name:        "rain before the candidate day is ignored",
			lastWatered: "2026-10-19T07:00:00Z",
			class:       WateringFrequent,
			forecast: []weather.DaySummary{
				summary(today, 10),
				summary(today.AddDate(0, 0, 1), 90),
				summary(today.AddDate(0, 0, 2), 10),
				summary(today.AddDate(0, 0, 3), 10),
			},
			want: "Oct 21",
		},
		{
			name:        "first rain day on or after the candidate wins",
			lastWatered: "2026-10-19T07:00:00Z",
			class:       WateringFrequent,
			forecast: []weather.DaySummary{
				summary(today, 10),
				summary(today.AddDate(0, 0, 1), 90),
				summary(today.AddDate(0, 0, 2), 10),
				summary(today.AddDate(0, 0, 3), 50),
				summary(today.AddDate(0, 0, 4), 80),
			},
			want: "Oct 22",
		},
		{
			name:        "summary decoded without a date value",
			lastWatered: "2026-10-17T07:00:00Z",
			class:       WateringAverage,
			forecast: []weather.DaySummary{
				{Day: "2026-10-20", AveragePrecipitationPercent: 10},
				{Day: "2026-10-21", AveragePrecipitationPercent: 75},
			},
			want: "Oct 21",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextWaterDate(tt.lastWatered, tt.class, tt.forecast, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextWaterDate_ChicagoRainDay(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	// Five days of 3-hour samples, day 3 is the only wet one.
	var samples []weather.ForecastSample
	for d := 0; d < 5; d++ {
		pop := 0.1
		if d == 2 {
			pop = 0.55
		}
		for h := 0; h < 24; h += 3 {
			ts := time.Date(2026, 10, 19+d, h, 0, 0, 0, chicago)
			samples = append(samples, weather.ForecastSample{
				Timestamp:                ts.Unix(),
				TemperatureMin:           50,
				TemperatureMax:           60,
				PrecipitationProbability: pop,
				IconCode:                 "10d",
			})
		}
	}
	forecast := weather.Summarize(samples, chicago)
	require.Len(t, forecast, 5)
	require.InDelta(t, 55.0, forecast[2].AveragePrecipitationPercent, 1e-9)

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, chicago)
	lastWatered := time.Date(2026, 10, 17, 18, 0, 0, 0, chicago).UTC().Format(time.RFC3339)

	assert.Equal(t, "Oct 21", NextWaterDate(lastWatered, WateringAverage, forecast, now))
}

func TestNextWaterDate_UsesNowLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2026-10-18T20:00Z is already Oct 19 in Tokyo.
	now := time.Date(2026, 10, 20, 12, 0, 0, 0, tokyo)

	assert.Equal(t, NextWaterTomorrow, NextWaterDate("2026-10-18T20:00:00Z", WateringFrequent, nil, now))
	assert.Equal(t, NextWaterToday, NextWaterDate("2026-10-18T20:00:00Z", WateringFrequent, nil, now.UTC()))
}

func TestParseLastWatered(t *testing.T) {
	for _, in := range []string{
		"2026-10-19T07:00:00.000Z",
		"2026-10-19T07:00:00+02:00",
		"2026-10-19T07:00:00",
		"2026-10-19",
	} {
		_, ok := ParseLastWatered(in, time.UTC)
		assert.True(t, ok, in)
	}

	_, ok := ParseLastWatered("19/10/2026", time.UTC)
	assert.False(t, ok)
}

func TestParseLastWatered_ZonelessValuesUseLocation(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	got, ok := ParseLastWatered("2026-10-18", chicago)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, chicago), got)

	got, ok = ParseLastWatered("2026-10-18T23:30:00", chicago)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 18, 23, 30, 0, 0, chicago), got)

	// An explicit offset still wins over the location.
	got, ok = ParseLastWatered("2026-10-19T03:00:00Z", chicago)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)))
}

func TestNextWaterDate_ZonelessValuesInWesternZone(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, chicago)

	assert.Equal(t, NextWaterTomorrow, NextWaterDate("2026-10-18", WateringFrequent, nil, now))
	assert.Equal(t, NextWaterTomorrow, NextWaterDate("2026-10-18T22:00:00", WateringFrequent, nil, now))
	assert.Equal(t, "Oct 22", NextWaterDate("2026-10-18", WateringAverage, nil, now))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 19, 9, 15, 30, 123456789, time.FixedZone("CDT", -5*3600))

	got := FormatTimestamp(ts)

	assert.Equal(t, "2026-10-19T14:15:30.123Z", got)
	parsed, ok := ParseLastWatered(got, time.UTC)
	require.True(t, ok)
	assert.True(t, parsed.Equal(ts.Truncate(time.Millisecond)))
}
