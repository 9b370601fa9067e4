package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wingetdepot/internal/catalog"
	"wingetdepot/internal/config"
	"wingetdepot/internal/database"
	"wingetdepot/internal/logsink"
	"wingetdepot/internal/server"
	"wingetdepot/internal/server/handlers"
	"wingetdepot/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if err := database.Connect(config.Current.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	if err := database.AutoMigrateAndSeed(); err != nil {
		log.Fatal().Err(err).Msg("migration/seed failed")
	}

	store, err := buildStore(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("content store init failed")
	}
	log.Info().Str("backend", store.Kind()).Msg("content store ready")

	hasher := storage.NewURLHasher(config.Current.MaxURLHashBytes)
	cat := catalog.New(database.DB, store, hasher)
	sink := logsink.New(database.DB)
	defer sink.Close()
	handlers.Setup(cat, sink)

	app := fiber.New(fiber.Config{
		ServerHeader: "wingetdepot",
		AppName:      "wingetdepot",
		BodyLimit:    2 * 1024 * 1024 * 1024, // installers can be large
	})
	server.RegisterRoutes(app)

	log.Info().Str("port", config.Current.Port).Msg("server listening")
	if err := app.Listen(":" + config.Current.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// buildStore picks the content store backend from resolved settings:
// env overrides win over the persisted rows. Changing the backend
// requires a restart.
func buildStore(ctx context.Context) (storage.Store, error) {
	if config.ResolveBool(database.DB, "use_s3") {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        config.ResolveSetting(database.DB, "s3_endpoint"),
			Region:          config.ResolveSetting(database.DB, "s3_region"),
			Bucket:          config.ResolveSetting(database.DB, "s3_bucket_name"),
			AccessKeyID:     config.ResolveSetting(database.DB, "s3_access_key_id"),
			SecretAccessKey: config.ResolveSetting(database.DB, "s3_secret_access_key"),
			UsePathStyle:    true,
		})
	}
	return storage.NewLocalStore(config.Current.PackagesDir), nil
}
