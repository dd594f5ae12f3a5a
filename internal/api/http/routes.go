package httpapi

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/outdoor-temperature/internal/store"
	"github.com/i474232898/outdoor-temperature/internal/weather"
)

var validate = validator.New()

// MetricsWriter writes metrics in Prometheus text format.
type MetricsWriter interface {
	WritePrometheus(w io.Writer)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/temperature", func(c *fiber.Ctx) error {
		return c.JSON(newTemperatureResponse(service))
	})

	v1.Post("/temperature/refresh", func(c *fiber.Ctx) error {
		if err := service.Refresh(c.UserContext()); err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   true,
				"kind":    weather.KindName(err),
				"message": err.Error(),
			})
		}
		return c.JSON(newTemperatureResponse(service))
	})

	v1.Get("/temperature/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := service.GetRange(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no temperature history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch temperature history")
		}

		return c.JSON(fiber.Map{
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})
}

// RegisterMetrics exposes /metrics.
func RegisterMetrics(app *fiber.App, m MetricsWriter) {
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
		m.WritePrometheus(c)
		return nil
	})
}

// temperatureResponse is the display-facing view of the retained state.
type temperatureResponse struct {
	Current       weather.Celsius `json:"temperatureC"`
	Previous      weather.Celsius `json:"previousC"`
	Change        weather.Celsius `json:"changeC"`
	Fahrenheit    weather.Celsius `json:"temperatureF"`
	Stale         bool            `json:"stale"`
	LastUpdate    *time.Time      `json:"lastUpdate"`
	NextUpdateDue *time.Time      `json:"nextUpdateDue"`

	// LatestPoll details the most recent successful poll still in history.
	LatestPoll *weather.Snapshot `json:"latestPoll,omitempty"`
}

func newTemperatureResponse(service *weather.Service) temperatureResponse {
	st := service.State()
	resp := temperatureResponse{
		Current:    st.Current,
		Previous:   st.Previous,
		Change:     st.TemperatureChange(),
		Fahrenheit: weather.ToFahrenheit(st.Current),
		Stale:      st.Stale(),
	}
	if last := st.LastUpdateTime(); !last.IsZero() {
		resp.LastUpdate = &last
	}
	if next := weather.NextDue(st, service.Settings().IntervalHours); !next.IsZero() {
		resp.NextUpdateDue = &next
	}
	if latest, err := service.GetLatest(); err == nil {
		resp.LatestPoll = &latest
	}
	return resp
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
