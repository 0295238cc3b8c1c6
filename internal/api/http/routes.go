package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/sensor-feed/internal/sensor"
	"github.com/i474232898/sensor-feed/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *sensor.Service, cache *store.DatasetCache) {
	v1 := app.Group("/api/v1")

	v1.Get("/readings", func(c *fiber.Ctx) error {
		q, err := parseMonthQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap := service.Snapshot()
		records, err := snap.WindowedQuery(q.Month)
		if err != nil {
			return queryError(err)
		}

		return c.JSON(fiber.Map{
			"month":    q.Month,
			"layout":   snap.Layout,
			"channels": snap.Channels,
			"count":    len(records),
			"readings": newReadingViews(records),
		})
	})

	v1.Get("/readings/current", func(c *fiber.Ctx) error {
		rec, err := service.NextRotating()
		if err != nil {
			return queryError(err)
		}
		return c.JSON(newReadingView(rec))
	})

	v1.Get("/months", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"months": service.AvailableMonths(),
		})
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		snap := service.Snapshot()
		st, err := snap.LatestStatus()
		if errors.Is(err, sensor.ErrNoData) {
			return c.JSON(newStatusView(nil, snap.Layout))
		}
		if err != nil {
			return queryError(err)
		}
		return c.JSON(newStatusView(&st, st.Layout))
	})

	v1.Get("/summary", func(c *fiber.Ctx) error {
		q, err := parseMonthQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summary, err := service.Summary(q.Month)
		if err != nil {
			return queryError(err)
		}
		return c.JSON(fiber.Map{
			"month":    q.Month,
			"channels": summary,
		})
	})

	v1.Get("/dataset", func(c *fiber.Ctx) error {
		ds := service.Dataset()
		return c.JSON(fiber.Map{
			"dataset":    ds,
			"records":    ds.Len(),
			"diagnostic": cache.Diagnostics(),
		})
	})

	v1.Post("/dataset/reload", func(c *fiber.Ctx) error {
		ds := cache.Reload(c.UserContext())
		return c.JSON(fiber.Map{
			"dataset":    ds,
			"records":    ds.Len(),
			"diagnostic": cache.Diagnostics(),
		})
	})
}

// monthQuery holds the optional month filter (YYYY-MM).
type monthQuery struct {
	Month string `validate:"omitempty,datetime=2006-01"`
}

func parseMonthQuery(c *fiber.Ctx) (monthQuery, error) {
	q := monthQuery{Month: c.Query("month")}
	if err := validate.Struct(q); err != nil {
		return q, errors.New("month must be formatted as YYYY-MM")
	}
	return q, nil
}

func queryError(err error) error {
	switch {
	case errors.Is(err, sensor.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, "no sensor readings available")
	case errors.Is(err, sensor.ErrInvalidMonth):
		return fiber.NewError(fiber.StatusBadRequest, "month must be formatted as YYYY-MM")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query sensor readings")
	}
}
