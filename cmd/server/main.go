package main

import (
	"mailtriage/internal/config"
	"mailtriage/internal/email"
	"mailtriage/internal/server"
	"mailtriage/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Pick the store: SQL when a database is configured, in-memory otherwise
	var st store.Store
	if cfg.DatabaseURL != "" {
		sqlStore, err := store.OpenSQL(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Database connection failed")
		}
		logger.Info().Msg("Database connection established successfully")
		st = sqlStore
	} else {
		logger.Info().Msg("No DATABASE_URL configured, using in-memory store")
		st = store.NewMemory()
	}

	// Outbound transport
	sender, err := email.NewSender(email.Config{
		Provider:       cfg.EmailProvider,
		From:           cfg.FromEmail,
		FromName:       cfg.FromName,
		SendGridAPIKey: cfg.SendGridAPIKey,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUser:       cfg.SMTPUser,
		SMTPPassword:   cfg.SMTPPassword,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Email sender configuration failed")
	}

	// Create and initialize server
	srv := server.New(cfg, st, sender, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
