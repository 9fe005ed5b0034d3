package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/waterwise/internal/garden"
	"github.com/i474232898/waterwise/internal/store"
	"github.com/i474232898/waterwise/internal/weather"
)

type stubForecasts map[string][]weather.DaySummary

func (s stubForecasts) Forecast(_ context.Context, city string) ([]weather.DaySummary, error) {
	if city == "Offline" {
		return nil, weather.ErrForecastUnavailable
	}
	f, ok := s[city]
	if !ok {
		return nil, weather.ErrCityNotFound
	}
	return f, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	forecasts := stubForecasts{
		"Chicago": {
			{Date: today, Day: "2026-10-19", AveragePrecipitationPercent: 30, TemperatureMin: 48, TemperatureMax: 61, IconCode: "03d"},
			{Date: today.AddDate(0, 0, 1), Day: "2026-10-20", AveragePrecipitationPercent: 70, IconCode: "10d"},
		},
		"Seattle": {
			{Date: today, Day: "2026-10-19", AveragePrecipitationPercent: 50, IconCode: "10d"},
		},
	}

	mem := store.NewMemoryStore()
	require.NoError(t, mem.PutCatalogEntry(context.Background(), garden.CatalogEntry{
		CommonName: "Monstera",
		Watering:   garden.WateringAverage,
	}))
	require.NoError(t, mem.PutCatalogEntry(context.Background(), garden.CatalogEntry{
		CommonName: "Snake Plant",
		Watering:   garden.WateringMinimum,
	}))

	svc := garden.NewService(mem, forecasts,
		garden.WithClock(func() time.Time { return today.Add(15 * time.Hour) }),
		garden.WithLocation(time.UTC))

	return NewApp(forecasts, svc, false)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestForecastEndpoint(t *testing.T) {
	app := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/forecast", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, true, body["error"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/forecast?city=Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["message"], "City not found")

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/forecast?city=Offline", nil)
	assert.Equal(t, http.StatusBadGateway, code)

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/forecast?city=Chicago", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["canWaterWithRain"])
	assert.InDelta(t, 30.0, body["rainPercentToday"], 1e-9)
	days, ok := body["forecast"].([]interface{})
	require.True(t, ok)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-10-19", days[0].(map[string]interface{})["date"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/forecast?city=Seattle", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["canWaterWithRain"])
}

func TestCatalogEndpoint(t *testing.T) {
	app := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/catalog/monstera", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Monstera", body["common_name"])

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/catalog/cactus", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPlantLifecycle(t *testing.T) {
	app := newTestApp(t)

	code, _ := doJSON(t, app, http.MethodPut, "/api/v1/users/u1/city", map[string]string{"city": "Atlantis"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, app, http.MethodPut, "/api/v1/users/u1/city", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := doJSON(t, app, http.MethodPut, "/api/v1/users/u1/city", map[string]string{"city": "Chicago"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Chicago", body["city"])

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants", map[string]string{"commonName": "Cactus"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants", map[string]string{"commonName": "Monstera"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Monstera", body["common_name"])

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants", map[string]string{"commonName": "Monstera"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/users/u1/plants", nil)
	require.Equal(t, http.StatusOK, code)
	plants := body["plants"].([]interface{})
	require.Len(t, plants, 1)
	assert.Equal(t, garden.NextWaterToday, plants[0].(map[string]interface{})["nextWater"])

	// 30% rain today keeps the rain gate closed.
	code, body = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants/Monstera/water", map[string]string{"method": "rain"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, garden.ErrRainUnlikely.Error(), body["message"])

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants/Monstera/water", map[string]string{"method": "bucket"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants/Fern/water", map[string]string{"method": "hose"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = doJSON(t, app, http.MethodPost, "/api/v1/users/u1/plants/Monstera/water", map[string]string{"method": "hose"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hose", body["method"])
	assert.Nil(t, body["event"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/users/u1/waterusage", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["events"])
	assert.InDelta(t, 0.0, body["totalWaterSaved"], 1e-9)
}

func TestRainWateringRecordsUsage(t *testing.T) {
	app := newTestApp(t)

	code, _ := doJSON(t, app, http.MethodPut, "/api/v1/users/u2/city", map[string]string{"city": "Seattle"})
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/users/u2/plants", map[string]string{"commonName": "monstera"})
	require.Equal(t, http.StatusCreated, code)

	code, body := doJSON(t, app, http.MethodPost, "/api/v1/users/u2/plants/Monstera/water", map[string]string{"method": "rain"})
	require.Equal(t, http.StatusOK, code)
	event := body["event"].(map[string]interface{})
	assert.InDelta(t, 0.125, event["waterSaved"], 1e-9)
	assert.Equal(t, "Monstera", event["plantName"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/users/u2/dashboard", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["canWaterWithRain"])
	assert.Equal(t, "Seattle", body["city"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/users/u2/waterusage", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["events"], 1)
	assert.InDelta(t, 0.125, body["totalWaterSaved"], 1e-9)
}

func TestPlantNamesWithSpaces(t *testing.T) {
	app := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/catalog/Snake%20Plant", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Snake Plant", body["common_name"])

	code, _ = doJSON(t, app, http.MethodPut, "/api/v1/users/u3/city", map[string]string{"city": "Seattle"})
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/users/u3/plants", map[string]string{"commonName": "Snake Plant"})
	require.Equal(t, http.StatusCreated, code)

	code, body = doJSON(t, app, http.MethodPost, "/api/v1/users/u3/plants/Snake%20Plant/water", map[string]string{"method": "hose"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Snake Plant", body["plant"].(map[string]interface{})["common_name"])

	code, body = doJSON(t, app, http.MethodPost, "/api/v1/users/u3/plants/Snake%20Plant/water", map[string]string{"method": "rain"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Snake Plant", body["event"].(map[string]interface{})["plantName"])
}

func TestInvalidJSONBody(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/plants", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
