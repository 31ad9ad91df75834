package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tganiev/table-reservation/internal/booking"
	"github.com/tganiev/table-reservation/internal/config"
	"github.com/tganiev/table-reservation/internal/database"
	"github.com/tganiev/table-reservation/internal/handler"
	"github.com/tganiev/table-reservation/internal/mailer"
	"github.com/tganiev/table-reservation/internal/queue"
	"github.com/tganiev/table-reservation/internal/repository"
	"github.com/tganiev/table-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	loc := cfg.Location()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when unreachable; limiter and cache degrade
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and availability cache disabled")
	}

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	reservations := repository.NewReservationRepo(db)

	admitter := booking.NewAdmitter(
		reservations,
		booking.SystemClock{Loc: loc},
		booking.Rules{Tables: cfg.TableAmount, MaxParty: cfg.PeopleAmount, Location: loc},
	)

	authH := handler.NewAuthHandler(cfg, accounts, tokens, mailer.NewSMTP(cfg))
	resH := handler.NewReservationHandler(admitter, reservations, rdb, cfg.AvailabilityTTL)

	e := echo.New()
	router.RegisterRoutes(e, resH)
	router.RegisterAuth(e, authH, config.LoadRateLimitConfig(), rdb)
	router.RegisterReservations(e, authH, resH, cfg.JWTSecret)

	// Background consumer writing confirmed bookings to logs/reservations.log.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, tz=%s, tables=%d)", addr, cfg.Env, cfg.BusinessTZ, cfg.TableAmount)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
