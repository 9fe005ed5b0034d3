package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/waterwise/internal/garden"
	"github.com/i474232898/waterwise/internal/weather"
)

var validate = validator.New()

// ForecastReader is the weather service surface the API uses.
type ForecastReader interface {
	Forecast(ctx context.Context, city string) ([]weather.DaySummary, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, forecasts ForecastReader, service *garden.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		q := cityQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summaries, err := forecasts.Forecast(c.UserContext(), q.City)
		if err != nil {
			return mapError(err)
		}

		pct, ok := garden.TodayRainPercent(summaries)
		resp := fiber.Map{
			"city":             q.City,
			"forecast":         summaries,
			"canWaterWithRain": ok && garden.CanWaterWithRain(pct),
		}
		if ok {
			resp["rainPercentToday"] = pct
		}
		return c.JSON(resp)
	})

	v1.Get("/catalog/:name", func(c *fiber.Ctx) error {
		entry, err := service.CatalogEntry(c.UserContext(), c.Params("name"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(entry)
	})

	users := v1.Group("/users/:uid")

	users.Get("/dashboard", func(c *fiber.Ctx) error {
		d, err := service.Dashboard(c.UserContext(), c.Params("uid"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(d)
	})

	users.Put("/city", func(c *fiber.Ctx) error {
		var req cityQuery
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		summaries, err := service.SetCity(c.UserContext(), c.Params("uid"), req.City)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{
			"city":     strings.TrimSpace(req.City),
			"forecast": summaries,
		})
	})

	users.Get("/plants", func(c *fiber.Ctx) error {
		plants, err := service.ListPlants(c.UserContext(), c.Params("uid"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"plants": plants})
	})

	users.Post("/plants", func(c *fiber.Ctx) error {
		var req addPlantRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		plant, err := service.AddPlant(c.UserContext(), c.Params("uid"), req.CommonName)
		if err != nil {
			return mapError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(plant)
	})

	users.Post("/plants/:name/water", func(c *fiber.Ctx) error {
		var req waterRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		res, err := service.Water(c.UserContext(), c.Params("uid"), c.Params("name"), garden.WateringMethod(req.Method))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(res)
	})

	users.Get("/waterusage", func(c *fiber.Ctx) error {
		usage, err := service.WaterUsage(c.UserContext(), c.Params("uid"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(usage)
	})
}

type cityQuery struct {
	City string `json:"city" validate:"required"`
}

type addPlantRequest struct {
	CommonName string `json:"commonName" validate:"required"`
}

type waterRequest struct {
	Method string `json:"method" validate:"required,oneof=rain hose"`
}

func bindJSON(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// mapError converts domain errors into HTTP errors for the central error handler.
func mapError(err error) error {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "City not found. Please check the spelling and try again.")
	case errors.Is(err, weather.ErrForecastUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "weather forecast is unavailable, try again later")
	case errors.Is(err, garden.ErrPlantNotFound),
		errors.Is(err, garden.ErrCatalogEntryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, garden.ErrRainUnlikely),
		errors.Is(err, garden.ErrPlantExists),
		errors.Is(err, garden.ErrWateringInProgress):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, garden.ErrUnknownMethod):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
