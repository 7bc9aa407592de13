package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"funda-scraper/config"
	"funda-scraper/scraper/funda"
	"funda-scraper/services"
	"funda-scraper/storage"
	"funda-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Funda Scraping System starting ===")
	logger.Info("Config: area: %s | want_to: %s | pages: %d from %d | concurrency: %d | rate: %.1f req/s",
		cfg.Area, cfg.WantTo, cfg.NPages, cfg.PageStart, cfg.MaxConcurrency, cfg.RateLimitPerSecond)

	profile, err := config.LoadSelectors(cfg.SelectorsPath)
	if err != nil {
		logger.Error("Failed to load selector profile: %v", err)
		os.Exit(1)
	}

	query := &funda.SearchQuery{
		Area:         cfg.Area,
		WantTo:       cfg.WantTo,
		PropertyType: cfg.PropertyType,
		FindPast:     cfg.FindPast,
		PageStart:    cfg.PageStart,
		NPages:       cfg.NPages,
		MinPrice:     cfg.MinPrice,
		MaxPrice:     cfg.MaxPrice,
		DaysSince:    cfg.DaysSince,
	}
	query.Normalise()
	if err := query.Validate(); err != nil {
		logger.Error("Invalid search query: %v", err)
		os.Exit(1)
	}

	scraper := funda.New(cfg, profile, logger)
	links, results, err := scraper.Run(context.Background(), query)
	if err != nil {
		logger.Error("Scrape failed: %v", err)
		os.Exit(1)
	}
	if len(links) == 0 {
		logger.Error("No listings were discovered. Exiting.")
		os.Exit(1)
	}

	assembler := services.NewAssembler(profile, logger)
	table := assembler.Assemble(results, query.FindPast)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputDir)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}

	name := storage.Filename(query.Area, query.IntentLabel(), query.AvailabilityStatus(), len(links))
	path, err := csvWriter.WriteTable(table, name)
	if err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Raw table saved to %s", path)
	}

	cleaner := services.NewCleaner(logger)
	listings := cleaner.Clean(table)

	if cfg.PostgresHost != "" && len(listings) > 0 {
		retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), retry)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.Write(listings); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Clean listings stored in PostgreSQL (table: listings)")
			}
		}
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(listings)
	insightSvc.Print(report)

	fmt.Printf("  Done. Raw CSV → %s | %d listings cleaned\n\n", path, len(listings))
}
