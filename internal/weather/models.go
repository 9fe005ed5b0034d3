package weather

import (
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// dayLayout is the canonical calendar-date key.
const dayLayout = "2006-01-02"

// ForecastSample is one raw 3-hour observation from the forecast provider.
type ForecastSample struct {
	Timestamp                int64   `json:"dt"` // UTC epoch seconds
	Temperature              float64 `json:"temp"`
	TemperatureMin           float64 `json:"tempMin"`
	TemperatureMax           float64 `json:"tempMax"`
	PrecipitationProbability float64 `json:"pop"` // 0.0 - 1.0
	IconCode                 string  `json:"icon"`
}

// DayBucket accumulates all samples that fall on one local calendar date.
type DayBucket struct {
	Date                        time.Time
	SampleCount                 int
	PrecipitationProbabilitySum float64
	TemperatureMin              float64
	TemperatureMax              float64
	IconCode                    string
}

// DayBuckets maps date keys to buckets and remembers the order in which
// each date was first seen in the sample stream.
type DayBuckets struct {
	Order   []string
	Buckets map[string]*DayBucket
}

// Len returns the number of distinct dates.
func (d DayBuckets) Len() int {
	return len(d.Order)
}

// DaySummary is the finalized per-day forecast statistic.
type DaySummary struct {
	Date                        time.Time `json:"-"`
	Day                         string    `json:"date"`
	AveragePrecipitationPercent float64   `json:"averagePrecipitationPercent"`
	TemperatureMin              int       `json:"temperatureMin"`
	TemperatureMax              int       `json:"temperatureMax"`
	IconCode                    string    `json:"icon"`
	Condition                   Condition `json:"condition"`
}

// ConditionFromIcon maps an OpenWeatherMap icon code ("10d", "01n", ...) to a Condition.
func ConditionFromIcon(icon string) Condition {
	code := strings.TrimRight(icon, "dn")
	switch code {
	case "01":
		return ConditionClear
	case "02", "03", "04":
		return ConditionCloudy
	case "09", "10":
		return ConditionRain
	case "11":
		return ConditionStorm
	case "13":
		return ConditionSnow
	case "50":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}
