package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-analyzer/internal/scheduler"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

var validate = validator.New()

// RunTrigger starts a pipeline run on demand.
type RunTrigger interface {
	TryRun(ctx context.Context) (weather.Outcome, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// trigger may be nil, in which case runs cannot be started over HTTP.
func RegisterRoutes(app *fiber.App, reader weather.Reader, trigger RunTrigger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-analyzer",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := reader.History(c.UserContext(), req.toQuery())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather history")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
		}

		return c.JSON(fiber.Map{
			"city":    req.City,
			"from":    optionalTime(req.From),
			"to":      optionalTime(req.To),
			"records": records,
		})
	})

	v1.Get("/weather/trends", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := reader.History(c.UserContext(), req.toQuery())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather history")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no weather data to summarize")
		}

		return c.JSON(weather.ComputeTrends(records))
	})

	v1.Post("/pipeline/runs", func(c *fiber.Ctx) error {
		if trigger == nil {
			return fiber.NewError(fiber.StatusNotImplemented, "pipeline runs are not enabled")
		}

		out, err := trigger.TryRun(c.UserContext())
		if errors.Is(err, scheduler.ErrRunInProgress) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.Status(runStatus(out)).JSON(out)
	})
}

// runStatus maps a run outcome onto a response code.
func runStatus(out weather.Outcome) int {
	switch {
	case out.Success():
		return fiber.StatusOK
	case out.State == weather.StateAbortedNoData:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusServiceUnavailable
	}
}

// historyQuery holds query parameters for the read endpoints. All are optional.
type historyQuery struct {
	City string    `validate:"omitempty,max=200"`
	From time.Time
	To   time.Time `validate:"omitempty,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.City = c.Query("city")

	if s := c.Query("from"); s != "" {
		from, err := parseTime(s)
		if err != nil {
			return err
		}
		h.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseTime(s)
		if err != nil {
			return err
		}
		h.To = to
	}
	return nil
}

func (h historyQuery) toQuery() weather.HistoryQuery {
	return weather.HistoryQuery{City: h.City, From: h.From, To: h.To}
}

func optionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
