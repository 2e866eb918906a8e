package providers

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"gorm.io/gorm"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distance.
	EarthRadiusKm = 6371.0088

	// MaxSearchResults caps one radius search.
	MaxSearchResults = 50

	kmPerDegreeLat = 111.19
)

// ProcedureFilter narrows a radius search. At most one field is set.
type ProcedureFilter struct {
	Code    *int
	Keyword string
}

// SpatialSearch finds providers within a radius of a point, cheapest first.
type SpatialSearch struct {
	db *gorm.DB
}

func NewSpatialSearch(db *gorm.DB) *SpatialSearch {
	return &SpatialSearch{db: db}
}

// Search returns up to MaxSearchResults providers whose great-circle
// distance from center is at most radiusKm, ordered by ascending submitted
// charge (NULL charges last, then id). The "overall" rating is left-joined.
func (s *SpatialSearch) Search(ctx context.Context, center Coordinates, radiusKm float64, filter ProcedureFilter) ([]SearchResult, error) {
	if filter.Code != nil && filter.Keyword != "" {
		return nil, fmt.Errorf("procedure code and keyword are mutually exclusive")
	}

	query, args := buildSearchQuery(center, radiusKm, filter)

	var results []SearchResult
	if err := s.db.WithContext(ctx).Raw(query, args).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("radius search: %w", err)
	}

	for i := range results {
		results[i].DistanceKm = roundDistance(results[i].DistanceKm, radiusKm)
	}

	log.Printf("[search] center=%.4f,%.4f radius_km=%.1f results=%d", center.Latitude, center.Longitude, radiusKm, len(results))
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

// buildSearchQuery computes great-circle distance from plain latitude and
// longitude columns, with a latitude band to narrow the scan first. On a
// PostGIS database with a geography location column the same filter is
// ST_DWithin(location, ST_MakePoint(@lng, @lat)::geography, @radius * 1000)
// and ST_Distance for the ordering.
func buildSearchQuery(center Coordinates, radiusKm float64, filter ProcedureFilter) (string, map[string]interface{}) {
	latDelta := radiusKm / kmPerDegreeLat
	args := map[string]interface{}{
		"lat":     center.Latitude,
		"lng":     center.Longitude,
		"radius":  radiusKm,
		"min_lat": center.Latitude - latDelta,
		"max_lat": center.Latitude + latDelta,
		"limit":   MaxSearchResults,
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
		WITH provider_distances AS (
			SELECT
				p.id,
				p.rndrng_prvdr_ccn,
				p.rndrng_prvdr_org_name,
				p.rndrng_prvdr_city,
				p.rndrng_prvdr_st,
				p.rndrng_prvdr_state_abrvtn,
				p.rndrng_prvdr_zip5,
				p.drg_cd,
				p.drg_desc,
				p.tot_dschrgs,
				p.avg_submtd_cvrd_chrg::float8 AS avg_submtd_cvrd_chrg,
				p.avg_tot_pymt_amt::float8 AS avg_tot_pymt_amt,
				p.avg_mdcr_pymt_amt::float8 AS avg_mdcr_pymt_amt,
				p.latitude::float8 AS latitude,
				p.longitude::float8 AS longitude,
				pr.rating::float8 AS overall_rating,
				pr.review_count,
				%f * 2 * ASIN(LEAST(1.0, SQRT(
					POWER(SIN(RADIANS(p.latitude::float8 - @lat) / 2), 2) +
					COS(RADIANS(@lat)) * COS(RADIANS(p.latitude::float8)) *
					POWER(SIN(RADIANS(p.longitude::float8 - @lng) / 2), 2)
				))) AS distance_km
			FROM providers p
			LEFT JOIN provider_ratings pr
				ON pr.provider_ccn = p.rndrng_prvdr_ccn
				AND pr.rating_category = '%s'
			WHERE p.latitude IS NOT NULL
				AND p.longitude IS NOT NULL
				AND p.latitude BETWEEN @min_lat AND @max_lat`, EarthRadiusKm, OverallCategory)

	switch {
	case filter.Code != nil:
		b.WriteString(`
				AND p.drg_cd = @drg_cd`)
		args["drg_cd"] = *filter.Code
	case filter.Keyword != "":
		b.WriteString(`
				AND (p.drg_desc ILIKE @drg_pattern ESCAPE '\' OR p.drg_cd::text = @drg_keyword)`)
		args["drg_pattern"] = "%" + escapeLike(filter.Keyword) + "%"
		args["drg_keyword"] = filter.Keyword
	}

	b.WriteString(`
		)
		SELECT *
		FROM provider_distances
		WHERE distance_km <= @radius
		ORDER BY avg_submtd_cvrd_chrg ASC NULLS LAST, id ASC
		LIMIT @limit`)

	return b.String(), args
}

// escapeLike makes a user keyword match literally inside ILIKE.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// roundDistance rounds to 2 dp without letting rounding push a row past
// the requested radius.
func roundDistance(d, radiusKm float64) float64 {
	r := math.Round(d*100) / 100
	if r > radiusKm {
		r = math.Floor(d*100) / 100
	}
	if r < 0 {
		r = 0
	}
	return r
}

// HaversineKm is the great-circle distance between two points in km. It
// matches the formula used by the radius query.
func HaversineKm(a, b Coordinates) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Pow(math.Sin(dLng/2), 2)
	return EarthRadiusKm * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}
