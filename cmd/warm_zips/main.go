package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/EmpoweredVote/cost-navigator/internal/config"
	"github.com/EmpoweredVote/cost-navigator/internal/db"
	"github.com/EmpoweredVote/cost-navigator/internal/providers"
	"github.com/joho/godotenv"
)

var (
	missing = flag.Int("missing", 0, "Also warm up to N provider ZIPs that have no zip_codes coordinates")
	delay   = flag.Duration("delay", 100*time.Millisecond, "Pause between geocoder calls")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.GoogleMapsKey == "" {
		log.Fatal("GOOGLE_MAPS_API_KEY not set")
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx := context.Background()
	zips := flag.Args()
	if *missing > 0 {
		var extra []string
		if err := gdb.WithContext(ctx).Raw(`
			SELECT DISTINCT p.rndrng_prvdr_zip5
			FROM providers p
			LEFT JOIN zip_codes z ON z.zip_code = p.rndrng_prvdr_zip5
			WHERE p.rndrng_prvdr_zip5 IS NOT NULL
				AND (z.zip_code IS NULL OR z.latitude IS NULL)
			ORDER BY p.rndrng_prvdr_zip5
			LIMIT ?
		`, *missing).Scan(&extra).Error; err != nil {
			log.Fatalf("find missing zips: %v", err)
		}
		zips = append(zips, extra...)
	}
	if len(zips) == 0 {
		fmt.Println("usage: warm_zips [-missing N] ZIP [ZIP...]")
		os.Exit(2)
	}

	_, geo := providers.Init(gdb, cfg)

	var warmed, failed int
	for i, zip := range zips {
		if i > 0 {
			time.Sleep(*delay)
		}
		c, err := geo.Warm(ctx, zip)
		if err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", zip, err)
			continue
		}
		warmed++
		fmt.Printf("✓ %s → %.5f, %.5f\n", zip, c.Latitude, c.Longitude)
	}

	fmt.Printf("\nWarmed %d ZIP(s), %d failed\n", warmed, failed)
}
