package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hopon-app/hopon-backend/internal/repository"
)

// SportHandler serves the sports catalog.  The catalog changes rarely,
// so the serialized list is cached in Redis for a few minutes; with no
// Redis client available every request hits the database.
type SportHandler struct {
	Sports *repository.SportRepo
	Redis  *redis.Client
}

// NewSportHandler wires the sports catalog endpoint.
func NewSportHandler(sports *repository.SportRepo, rdb *redis.Client) *SportHandler {
	return &SportHandler{Sports: sports, Redis: rdb}
}

const (
	sportsCacheKey = "sports:catalog"
	sportsCacheTTL = 10 * time.Minute
)

// List returns the full sports catalog.
func (h *SportHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if h.Redis != nil {
		if raw, err := h.Redis.Get(ctx, sportsCacheKey).Bytes(); err == nil {
			var cached []sportResponse
			if json.Unmarshal(raw, &cached) == nil {
				return c.JSON(http.StatusOK, echo.Map{"sports": cached})
			}
		}
	}

	sports, err := h.Sports.ListAll(ctx)
	if err != nil {
		return failInternal(c)
	}
	out := toSportResponses(sports)

	if h.Redis != nil {
		if raw, err := json.Marshal(out); err == nil {
			// Best effort; a failed SET just means the next request hits the DB.
			h.Redis.Set(ctx, sportsCacheKey, raw, sportsCacheTTL)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"sports": out})
}
