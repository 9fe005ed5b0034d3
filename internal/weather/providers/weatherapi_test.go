package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/waterwise/internal/weather"
)

const weatherAPIForecastURL = DefaultWeatherAPIBaseURL + "/forecast.json"

func weatherAPISuccessResponse() string {
	return `{
		"location": {"name": "London"},
		"forecast": {"forecastday": [
			{"hour": [
				{"time_epoch": 1760918400, "temp_c": 11.0, "temp_f": 51.8, "chance_of_rain": 85, "is_day": 0, "condition": {"text": "Patchy rain nearby"}},
				{"time_epoch": 1760922000, "temp_c": 12.5, "temp_f": 54.5, "chance_of_rain": 40, "is_day": 1, "condition": {"text": "Sunny"}}
			]}
		]}
	}`
}

func TestWeatherAPIProvider_FetchForecast_Success(t *testing.T) {
	client := setupHTTPMock(t)

	var days string
	httpmock.RegisterResponder(http.MethodGet, weatherAPIForecastURL,
		func(req *http.Request) (*http.Response, error) {
			days = req.URL.Query().Get("days")
			return httpmock.NewStringResponse(http.StatusOK, weatherAPISuccessResponse()), nil
		})

	p := NewWeatherAPIProvider(client, "test-key", "", "imperial", nil)

	samples, err := p.FetchForecast(context.Background(), "London")

	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "3", days)

	assert.Equal(t, int64(1760918400), samples[0].Timestamp)
	assert.InDelta(t, 51.8, samples[0].Temperature, 0.001)
	assert.InDelta(t, 0.85, samples[0].PrecipitationProbability, 0.001)
	assert.Equal(t, "10n", samples[0].IconCode)
	assert.Equal(t, "01d", samples[1].IconCode)
}

func TestWeatherAPIProvider_FetchForecast_Metric(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, weatherAPIForecastURL,
		httpmock.NewStringResponder(http.StatusOK, weatherAPISuccessResponse()))

	p := NewWeatherAPIProvider(client, "test-key", "", "metric", nil)

	samples, err := p.FetchForecast(context.Background(), "London")

	require.NoError(t, err)
	assert.InDelta(t, 11.0, samples[0].TemperatureMin, 0.001)
	assert.InDelta(t, 12.5, samples[1].TemperatureMax, 0.001)
}

func TestWeatherAPIProvider_FetchForecast_UnknownCity(t *testing.T) {
	client := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, weatherAPIForecastURL,
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error": {"code": 1006, "message": "No matching location found."}}`))

	p := NewWeatherAPIProvider(client, "test-key", "", "imperial", nil)

	_, err := p.FetchForecast(context.Background(), "Atlantis")

	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrCityNotFound)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestWeatherAPIIcon(t *testing.T) {
	tests := []struct {
		text  string
		isDay bool
		want  string
	}{
		{"Sunny", true, "01d"},
		{"Clear", false, "01n"},
		{"Partly cloudy", true, "03d"},
		{"Overcast", false, "03n"},
		{"Light drizzle", true, "10d"},
		{"Thundery outbreaks possible", true, "11d"},
		{"Moderate snow", false, "13n"},
		{"Freezing fog", true, "50d"},
		{"", true, ""},
		{"Something new", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, weatherAPIIcon(tt.text, tt.isDay))
		})
	}
}
