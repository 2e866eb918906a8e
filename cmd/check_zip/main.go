package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	zip      = flag.String("zip", "", "5-digit ZIP to inspect (required)")
	radiusKm = flag.Float64("radius", 50, "Search radius in km")
	dsn      = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
)

type procedureCount struct {
	Code      int
	Desc      sql.NullString
	Providers int
	MinCharge sql.NullFloat64
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *zip == "" {
		fatalf("--zip is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	var (
		city, state sql.NullString
		lat, lng    sql.NullFloat64
	)
	err = db.QueryRowContext(ctx, `
		SELECT city, state_code, latitude::float8, longitude::float8
		FROM zip_codes
		WHERE zip_code = $1
	`, *zip).Scan(&city, &state, &lat, &lng)
	if errors.Is(err, sql.ErrNoRows) {
		fmt.Printf("ZIP %s is not in zip_codes. Run warm_zips %s to geocode it.\n", *zip, *zip)
		return
	}
	if err != nil {
		fatalf("zip lookup: %v", err)
	}
	if !lat.Valid || !lng.Valid {
		fmt.Printf("ZIP %s (%s, %s) has no coordinates. Run warm_zips %s.\n", *zip, city.String, state.String, *zip)
		return
	}

	fmt.Printf("ZIP %s: %s, %s (%.4f, %.4f)\n", *zip, city.String, state.String, lat.Float64, lng.Float64)

	counts, err := countByProcedure(ctx, db, lat.Float64, lng.Float64, *radiusKm)
	if err != nil {
		fatalf("radius query: %v", err)
	}

	fmt.Printf("Procedures offered within %.0f km: %d\n\n", *radiusKm, len(counts))
	for _, c := range counts {
		charge := "n/a"
		if c.MinCharge.Valid {
			charge = fmt.Sprintf("$%.2f", c.MinCharge.Float64)
		}
		fmt.Printf("  DRG %-4d providers=%-3d cheapest=%-12s %s\n", c.Code, c.Providers, charge, c.Desc.String)
	}
}

func countByProcedure(ctx context.Context, db *sql.DB, lat, lng, radiusKm float64) ([]procedureCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT drg_cd, MIN(drg_desc), COUNT(DISTINCT rndrng_prvdr_ccn), MIN(avg_submtd_cvrd_chrg)::float8
		FROM providers
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
			AND 6371.0088 * 2 * ASIN(LEAST(1.0, SQRT(
				POWER(SIN(RADIANS(latitude::float8 - $1::float8) / 2), 2) +
				COS(RADIANS($1::float8)) * COS(RADIANS(latitude::float8)) *
				POWER(SIN(RADIANS(longitude::float8 - $2::float8) / 2), 2)
			))) <= $3::float8
		GROUP BY drg_cd
		ORDER BY COUNT(DISTINCT rndrng_prvdr_ccn) DESC, drg_cd
		LIMIT 25
	`, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []procedureCount
	for rows.Next() {
		var c procedureCount
		if err := rows.Scan(&c.Code, &c.Desc, &c.Providers, &c.MinCharge); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}
