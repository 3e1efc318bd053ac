// Package router maps URLs to handlers and attaches middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hopon-app/hopon-backend/internal/config"
	"github.com/hopon-app/hopon-backend/internal/handler"
	"github.com/hopon-app/hopon-backend/internal/middleware"
)

// Handlers groups every handler the router wires up.
type Handlers struct {
	Auth          *handler.AuthHandler
	Events        *handler.EventHandler
	Participation *handler.ParticipationHandler
	Ratings       *handler.RatingHandler
	Follows       *handler.FollowHandler
	Users         *handler.UserHandler
	Notifications *handler.NotificationHandler
	Sports        *handler.SportHandler
}

// Register attaches all routes to the Echo instance.  Everything under
// /v1 except auth entry points and the public catalog/search reads sits
// behind JWT auth; the rate limiter wraps the authenticated group.
func Register(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	// Public reads: discovery works without an account.
	v1.GET("/sports", h.Sports.List)
	v1.GET("/events", h.Events.Search)
	v1.GET("/events/:id", h.Events.Get)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	authed := v1.Group("", middleware.JWTAuth(cfg.JWTSecret), limiter)

	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/me", h.Auth.Me)

	authed.POST("/events", h.Events.Create)
	authed.PUT("/events/:id", h.Events.Update)
	authed.DELETE("/events/:id", h.Events.Cancel)
	authed.POST("/events/:id/join", h.Participation.Join)
	authed.POST("/events/:id/leave", h.Participation.Leave)

	authed.GET("/users/:id", h.Users.Get)
	authed.PUT("/users/:id", h.Users.Update)
	authed.GET("/users/:id/events", h.Users.ListEvents)
	authed.GET("/users/:id/ratings", h.Ratings.ListForUser)
	authed.GET("/users/:id/follows", h.Follows.ListFollows)
	authed.POST("/users/:id/follow", h.Follows.Follow)
	authed.DELETE("/users/:id/follow", h.Follows.Unfollow)

	authed.POST("/ratings", h.Ratings.Create)

	authed.GET("/notifications", h.Notifications.List)
	authed.POST("/notifications/:id/read", h.Notifications.MarkRead)
	authed.POST("/notifications/read-all", h.Notifications.MarkAllRead)
}
