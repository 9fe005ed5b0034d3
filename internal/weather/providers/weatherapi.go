package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/waterwise/internal/common"
	"github.com/i474232898/waterwise/internal/weather"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// weatherAPIForecastDays is the longest range on the free plan.
const weatherAPIForecastDays = 3

// WeatherAPIProvider implements weather.ForecastProvider for WeatherAPI.com.
// Samples are hourly rather than 3-hourly; the normalizer does not care.
type WeatherAPIProvider struct {
	name     string
	apiKey   string
	baseURL  string
	imperial bool
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

var _ weather.ForecastProvider = (*WeatherAPIProvider)(nil)

func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL, units string, limiter *rate.Limiter) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}
	return &WeatherAPIProvider{
		name:     "weatherapi",
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		imperial: units == "" || units == "imperial",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
			Limiter: limiter,
		},
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIForecast struct {
	Forecast struct {
		ForecastDay []struct {
			Hour []struct {
				TimeEpoch    int64   `json:"time_epoch"`
				TempC        float64 `json:"temp_c"`
				TempF        float64 `json:"temp_f"`
				ChanceOfRain float64 `json:"chance_of_rain"`
				IsDay        int     `json:"is_day"`
				Condition    struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, city string) ([]weather.ForecastSample, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrForecastUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", city)
		values.Set("days", strconv.Itoa(weatherAPIForecastDays))

		u := fmt.Sprintf("%s/forecast.json?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, http.NoBody)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, classify(p.name, err)
	}
	defer resp.Body.Close()

	var payload weatherAPIForecast
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: %w: decode: %v", p.name, weather.ErrForecastUnavailable, err)
	}

	var samples []weather.ForecastSample
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			temp := h.TempC
			if p.imperial {
				temp = h.TempF
			}
			samples = append(samples, weather.ForecastSample{
				Timestamp:                h.TimeEpoch,
				Temperature:              temp,
				TemperatureMin:           temp,
				TemperatureMax:           temp,
				PrecipitationProbability: h.ChanceOfRain / 100,
				IconCode:                 weatherAPIIcon(h.Condition.Text, h.IsDay == 1),
			})
		}
	}

	return samples, nil
}

// weatherAPIIcon translates a WeatherAPI condition text into an OpenWeatherMap style icon code
// so summaries look the same whichever provider produced them.
func weatherAPIIcon(text string, isDay bool) string {
	suffix := "n"
	if isDay {
		suffix = "d"
	}

	var code string
	switch mapWeatherAPICondition(text) {
	case weather.ConditionClear:
		code = "01"
	case weather.ConditionCloudy:
		code = "03"
	case weather.ConditionRain:
		code = "10"
	case weather.ConditionStorm:
		code = "11"
	case weather.ConditionSnow:
		code = "13"
	case weather.ConditionMist:
		code = "50"
	default:
		return ""
	}
	return code + suffix
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAnyFold(text, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAnyFold(text, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAnyFold(text, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAnyFold(text, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAnyFold(text, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAnyFold(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
