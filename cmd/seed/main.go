package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // timezone database for minimal images

	"naalli/internal/config"
	"naalli/internal/database"
	"naalli/internal/events"
	"naalli/internal/logging"
	"naalli/internal/models"
	"naalli/internal/repository"
	"naalli/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		withAdmin  = flag.Bool("admin", true, "create the default admin when there are no users")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	logger := logging.Component(baseLogger, "seed")

	loc := cfg.App.Location()
	db, err := database.NewDB(cfg.Database, logging.Component(baseLogger, "database"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetLocation(loc)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *withAdmin {
		auth := service.NewAuthService(db, repository.NewMemorySessionStore(), nil, events.NewEventBus(), cfg.Auth, cfg.App, logger)
		if err := auth.EnsureDefaultAdmin(ctx); err != nil {
			return fmt.Errorf("default admin: %w", err)
		}
	}

	bookings := demoBookings(loc)
	inserted, err := db.InsertBookings(ctx, bookings)
	if err != nil {
		return fmt.Errorf("insert bookings: %w", err)
	}

	logger.Info().Int("inserted", inserted).Int("total", len(bookings)).Msg("demo bookings seeded")
	return nil
}

// demoBookings are all stamped 16/12/2025 00:00 local time so they are easy to tell apart.
func demoBookings(loc *time.Location) []*models.Booking {
	createdAt := time.Date(2025, time.December, 16, 0, 0, 0, 0, loc)

	rows := []struct {
		date, hour string
		number     int
		kind, name string
	}{
		{"15/12/2025", "07:00", 1, models.KindStrength, "Ana Clara"},
		{"15/12/2025", "07:00", 2, models.KindTreadmill, "Ricardo"},
		{"15/12/2025", "08:00", 1, models.KindStrength, "Sr. Antônio"},
		{"15/12/2025", "18:00", 1, models.KindStrength, "Felipe"},
		{"15/12/2025", "18:00", 2, models.KindStrength, "Beatriz"},
		{"15/12/2025", "19:00", 3, models.KindElliptical, "Larissa"},

		{"16/12/2025", "06:00", 1, models.KindTreadmill, "Juliana"},
		{"16/12/2025", "07:00", 1, models.KindStrength, "Fernanda"},
		{"16/12/2025", "07:00", 2, models.KindTreadmill, "Ana Clara"},
		{"16/12/2025", "18:00", 1, models.KindStrength, "Gustavo"},
		{"16/12/2025", "19:00", 1, models.KindStrength, "Priscila"},
		{"16/12/2025", "20:00", 1, models.KindTreadmill, "Gabriel"},
	}

	bookings := make([]*models.Booking, 0, len(rows))
	for _, r := range rows {
		bookings = append(bookings, &models.Booking{
			Date:      r.date,
			Time:      r.hour,
			Number:    r.number,
			Kind:      r.kind,
			Name:      r.name,
			Pin:       models.SeedPin,
			CreatedAt: createdAt,
		})
	}
	return bookings
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
