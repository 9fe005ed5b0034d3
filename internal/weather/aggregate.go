package weather

import (
	"math"
	"time"
)

// NormalizeSamples groups samples into local calendar-day buckets.
// The first sample of a date seeds the bucket's temperature range and icon;
// later samples only widen the range and add to the precipitation sum.
func NormalizeSamples(samples []ForecastSample, loc *time.Location) DayBuckets {
	if loc == nil {
		loc = time.Local
	}

	out := DayBuckets{
		Buckets: make(map[string]*DayBucket),
	}

	for _, s := range samples {
		ts := time.Unix(s.Timestamp, 0).In(loc)
		key := ts.Format(dayLayout)

		b, ok := out.Buckets[key]
		if !ok {
			b = &DayBucket{
				Date:           time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc),
				TemperatureMin: s.TemperatureMin,
				TemperatureMax: s.TemperatureMax,
				IconCode:       s.IconCode,
			}
			out.Buckets[key] = b
			out.Order = append(out.Order, key)
		}

		b.SampleCount++
		b.PrecipitationProbabilitySum += s.PrecipitationProbability
		if s.TemperatureMin < b.TemperatureMin {
			b.TemperatureMin = s.TemperatureMin
		}
		if s.TemperatureMax > b.TemperatureMax {
			b.TemperatureMax = s.TemperatureMax
		}
	}

	return out
}

// BuildSummaries converts buckets into day summaries in first-seen order.
func BuildSummaries(days DayBuckets) []DaySummary {
	summaries := make([]DaySummary, 0, days.Len())

	for _, key := range days.Order {
		b := days.Buckets[key]
		if b == nil || b.SampleCount == 0 {
			continue
		}

		avg := b.PrecipitationProbabilitySum / float64(b.SampleCount) * 100

		summaries = append(summaries, DaySummary{
			Date:                        b.Date,
			Day:                         key,
			AveragePrecipitationPercent: round1(avg),
			TemperatureMin:              int(math.Round(b.TemperatureMin)),
			TemperatureMax:              int(math.Round(b.TemperatureMax)),
			IconCode:                    b.IconCode,
			Condition:                   ConditionFromIcon(b.IconCode),
		})
	}

	return summaries
}

// Summarize runs both stages over a raw sample stream.
func Summarize(samples []ForecastSample, loc *time.Location) []DaySummary {
	return BuildSummaries(NormalizeSamples(samples, loc))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
