package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/devevents/devevents/db"
	"github.com/devevents/devevents/internal/attendance"
	"github.com/devevents/devevents/internal/auth"
	"github.com/devevents/devevents/internal/config"
	"github.com/devevents/devevents/internal/geocode"
	"github.com/devevents/devevents/internal/mailer"
	"github.com/devevents/devevents/internal/ratelimit"
	"github.com/devevents/devevents/internal/router"
	"github.com/devevents/devevents/internal/upload"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(db.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := db.SeedCategories(db.DB); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	uploader, err := upload.NewCloudinaryUploader(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)

	if err != nil {
		log.Fatalf("Failed to initialize Cloudinary: %v", err)
	}

	geocoder, err := geocode.NewGoogleGeocoder(cfg.GoogleMapsAPIKey)

	if err != nil {
		log.Fatalf("Failed to initialize geocoder: %v", err)
	}

	var mail mailer.Mailer

	if cfg.MailServer != "" {
		smtp, err := mailer.NewSMTPMailer(cfg.MailServer, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailFrom)

		if err != nil {
			log.Fatalf("Failed to initialize mailer: %v", err)
		}

		mail = smtp
	} else {
		log.Println("MAIL_SERVER not set, attendee notifications disabled")
	}

	var limitStore ratelimit.Store

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}

		limitStore = ratelimit.NewRedisStore(client)
	} else {
		limitStore = ratelimit.NewMemoryStore()
	}

	r := router.New(router.Deps{
		Config:    cfg,
		DB:        db.DB,
		Sessions:  auth.NewSessionManager(db.DB, cfg.SecretKey, cfg.AccessTokenTTL),
		Engine:    attendance.NewEngine(db.DB),
		Uploader:  uploader,
		Geocoder:  geocoder,
		Mailer:    mail,
		RateLimit: limitStore,
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
