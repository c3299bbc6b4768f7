package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string // Empty means the in-memory store
	Version     string
	LogLevel    string
	CSVPath     string // Default path for the load_csv endpoint

	IMAPServer   string
	IMAPPort     int
	IMAPEmail    string
	IMAPPassword string
	IMAPFolder   string
	IMAPDays     int // How far back the inbox fetch looks
	IMAPLimit    int // Max messages fetched per load_inbox call

	EmailProvider  string // "sendgrid" or "smtp"
	FromEmail      string
	FromName       string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string

	OpenAIKey     string
	OpenAITimeout int // OpenAI API timeout in seconds

	MailTimeout   int // IMAP and SMTP network timeout in seconds
	StatsCacheTTL int // Stats snapshot lifetime in seconds
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CSVPath:     getEnv("CSV_PATH", "data/emails.csv"),

		IMAPServer:   os.Getenv("IMAP_SERVER"),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPEmail:    os.Getenv("IMAP_EMAIL"),
		IMAPPassword: os.Getenv("IMAP_PASSWORD"),
		IMAPFolder:   getEnv("IMAP_FOLDER", "INBOX"),
		IMAPDays:     getEnvInt("IMAP_DAYS", 7),
		IMAPLimit:    getEnvInt("IMAP_LIMIT", 50),

		EmailProvider:  getEnv("EMAIL_PROVIDER", "smtp"),
		FromEmail:      getEnv("FROM_EMAIL", "support@example.com"),
		FromName:       getEnv("FROM_NAME", "Support Team"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getEnvInt("SMTP_PORT", 465),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAITimeout: getEnvInt("OPENAI_TIMEOUT", 30),

		MailTimeout:   getEnvInt("MAIL_TIMEOUT", 30),
		StatsCacheTTL: getEnvInt("STATS_CACHE_TTL", 30),
	}

	return config
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "mailtriage").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
