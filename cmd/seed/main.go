// Command seed fills the database with generated weekly surveillance data
// so the system can be exercised before real data is ingested.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/db"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/synthetic"
)

func main() {
	startYear := flag.Int("start-year", 0, "first year of the generated series (default per generator)")
	weeks := flag.Int("weeks", 0, "number of weeks per municipality (default per generator)")
	seed := flag.Int64("seed", 0, "random seed (default per generator)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	dbConn, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	if err := dbConn.ApplySchema(ctx); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}

	opts := synthetic.DefaultOptions()
	if *startYear > 0 {
		opts.StartYear = *startYear
	}
	if *weeks > 0 {
		opts.Weeks = *weeks
	}
	if *seed != 0 {
		opts.Seed = *seed
	}

	for _, name := range opts.Municipalities {
		m := models.Municipality{Name: name, Province: cfg.API.DefaultProvince}
		if err := dbConn.UpsertMunicipality(ctx, m); err != nil {
			log.Fatalf("Failed to upsert municipality %s: %v", name, err)
		}
	}

	records := synthetic.Generate(opts)
	for _, rec := range records {
		if err := dbConn.UpsertWeeklyRecord(ctx, rec); err != nil {
			log.Fatalf("Failed to upsert record %s %s: %v", rec.Municipality, rec.EpiWeek(), err)
		}
	}

	fmt.Printf("seeded %d records across %d municipalities\n", len(records), len(opts.Municipalities))
}
