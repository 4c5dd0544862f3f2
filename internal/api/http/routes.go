package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-reports/internal/store"
	"github.com/i474232898/weather-reports/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, outcomes *store.MemoryStore) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Current(c.UserContext(), q.City)
		if err != nil {
			return serviceError(err)
		}

		return c.JSON(fiber.Map{
			"city":   q.City,
			"report": report,
		})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := service.Forecast(c.UserContext(), req.City, req.Days)
		if err != nil {
			return serviceError(err)
		}

		return c.JSON(fiber.Map{
			"city":     req.City,
			"days":     req.Days,
			"forecast": forecast,
		})
	})

	// daily answers current weather, or the forecast for one day when days_since is set.
	v1.Get("/weather/daily", func(c *fiber.Ctx) error {
		var req dailyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var (
			report weather.Report
			err    error
		)
		if req.DaysSince == nil {
			report, err = service.Current(c.UserContext(), req.City)
		} else {
			report, err = service.SpecificDay(c.UserContext(), req.City, *req.DaysSince)
		}
		if err != nil {
			return serviceError(err)
		}

		return c.JSON(fiber.Map{
			"city":      req.City,
			"daysSince": req.DaysSince,
			"report":    report,
		})
	})

	v1.Get("/providers/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"providers": service.Providers(),
			"stats":     outcomes.All(),
		})
	})

	v1.Get("/providers/:name/status", func(c *fiber.Ctx) error {
		stats, err := outcomes.Stats(c.Params("name"))
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no outcomes recorded for provider "+c.Params("name"))
		}
		if err != nil {
			return err
		}
		return c.JSON(stats)
	})
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

func serviceError(err error) error {
	var rangeErr *weather.DayOutOfRangeError
	switch {
	case errors.Is(err, weather.ErrNoWeatherData):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &rangeErr):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}

// cityQuery holds the query parameter identifying a city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	var q cityQuery

	q.City = c.Query("city")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	City string `validate:"required"`
	Days int    `validate:"required,min=1"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return err
	}
	f.City = q.City

	daysStr := c.Query("days")
	if daysStr == "" {
		return errors.New("days query parameter is required")
	}
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		return errors.New("days should be a positive number")
	}
	f.Days = days

	if err := validate.Struct(f); err != nil {
		return err
	}
	if f.Days > weather.MaxForecastDays {
		return fmt.Errorf("days should be at most %d", weather.MaxForecastDays)
	}
	return nil
}

// dailyQuery holds query parameters for the daily endpoint.
type dailyQuery struct {
	City      string `validate:"required"`
	DaysSince *int   `validate:"omitempty,min=0"`
}

func (d *dailyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return err
	}
	d.City = q.City

	if s := c.Query("days_since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("days_since should be a non-negative number")
		}
		d.DaysSince = &n
	}

	if err := validate.Struct(d); err != nil {
		return err
	}
	if d.DaysSince != nil && *d.DaysSince >= weather.MaxForecastDays {
		return fmt.Errorf("days_since should be at most %d", weather.MaxForecastDays-1)
	}
	return nil
}
