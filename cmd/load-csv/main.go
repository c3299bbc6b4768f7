package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"mailtriage/internal/config"
	"mailtriage/internal/ingest"
	"mailtriage/internal/models"
	"mailtriage/internal/store"
)

func main() {
	// Parse command line flags
	csvPath := flag.String("csv", "", "Path to CSV file with sender, subject, body and sent_date columns")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage:")
		fmt.Println("  Load a CSV export:  load-csv -csv /path/to/emails.csv")
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	logger := cfg.SetupLogger()

	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL must be set, the in-memory store does not outlive this command")
	}

	st, err := store.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = st.Close() }()

	fmt.Printf("Parsing CSV from: %s\n", *csvPath)
	batch, err := ingest.LoadCSV(*csvPath)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	fmt.Printf("Successfully parsed %d rows\n", len(batch))

	fmt.Println("Triaging and storing emails...")
	svc := ingest.NewService(st, logger)
	report := svc.Process(batch, ingest.Options{Status: models.StatusProcessed})

	fmt.Println("\n✓ CSV load complete!")
	fmt.Printf("  - Rows:   %d\n", report.Rows)
	fmt.Printf("  - Stored: %d\n", report.Stored)
}
