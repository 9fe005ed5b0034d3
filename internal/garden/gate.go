package garden

import "github.com/i474232898/waterwise/internal/weather"

// RainThresholdPercent is the minimum rain probability for watering by rain.
const RainThresholdPercent = 50.0

// CanWaterWithRain reports whether a rain probability opens the gate (inclusive).
func CanWaterWithRain(percent float64) bool {
	return percent >= RainThresholdPercent
}

// TodayRainPercent returns the first summary's rain probability.
func TodayRainPercent(forecast []weather.DaySummary) (float64, bool) {
	if len(forecast) == 0 {
		return 0, false
	}
	return forecast[0].AveragePrecipitationPercent, true
}

// RainGateOpen applies the gate to a forecast; no forecast keeps it closed.
func RainGateOpen(forecast []weather.DaySummary) bool {
	pct, ok := TodayRainPercent(forecast)
	return ok && CanWaterWithRain(pct)
}
