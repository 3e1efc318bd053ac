package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hopon-app/hopon-backend/internal/config"
	"github.com/hopon-app/hopon-backend/internal/database"
	"github.com/hopon-app/hopon-backend/internal/handler"
	"github.com/hopon-app/hopon-backend/internal/queue"
	"github.com/hopon-app/hopon-backend/internal/repository"
	"github.com/hopon-app/hopon-backend/internal/router"
	"github.com/hopon-app/hopon-backend/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(database.Options{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: time.Duration(cfg.DBConnLifeMin) * time.Minute,
	})
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	events := repository.NewEventRepo(db)
	participants := repository.NewParticipantRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	ratings := repository.NewRatingRepo(db)
	follows := repository.NewFollowRepo(db)
	sports := repository.NewSportRepo(db)
	notifications := repository.NewNotificationRepo(db)

	searcher := service.NewEventSearcher(events, service.SearchConfig{
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		MaxRadiusKm:     cfg.MaxRadiusKm,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
	notifier := service.NewQueueNotifier()

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(users, tokens, sports, &cfg),
		Events:        handler.NewEventHandler(events, participants, users, follows, searcher, notifier),
		Participation: handler.NewParticipationHandler(events, participants, users, notifier),
		Ratings:       handler.NewRatingHandler(ratings, users, notifier),
		Follows:       handler.NewFollowHandler(follows, users, notifier),
		Users:         handler.NewUserHandler(users, events, sports),
		Notifications: handler.NewNotificationHandler(notifications),
		Sports:        handler.NewSportHandler(sports, rdb),
	}

	// Drain queued notifications into the notifications table.  The
	// consumer reconnects on its own; a dead broker only delays feeds.
	go func() {
		if err := queue.StartNotificationConsumer(notifications); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, h, &cfg, rdb)

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
