package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MaxSuggestions caps DRG autocomplete results.
const MaxSuggestions = 10

// Service is the structured search path: ZIP → coordinates → radius search.
type Service struct {
	db     *gorm.DB
	geo    *GeoResolver
	search *SpatialSearch
}

func NewService(db *gorm.DB, geo *GeoResolver, search *SpatialSearch) *Service {
	return &Service{db: db, geo: geo, search: search}
}

// ParseProcedure splits caller text into an exact DRG code or a keyword.
// A string that parses as an integer is always treated as a code.
func ParseProcedure(text string) ProcedureFilter {
	text = strings.TrimSpace(text)
	if text == "" {
		return ProcedureFilter{}
	}
	if code, err := strconv.Atoi(text); err == nil {
		return ProcedureFilter{Code: &code}
	}
	return ProcedureFilter{Keyword: text}
}

// Search resolves zip and returns providers within radiusKm. procedure may
// be nil for an unfiltered search.
func (s *Service) Search(ctx context.Context, procedure *string, zip string, radiusKm float64) (*SearchOutcome, error) {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return nil, ErrZipRequired
	}
	if !isZip5(zip) {
		return nil, ErrInvalidZip
	}
	if radiusKm <= 0 {
		return nil, ErrInvalidRadius
	}

	center, err := s.geo.Resolve(ctx, zip)
	if err != nil {
		return nil, err
	}

	var filter ProcedureFilter
	if procedure != nil {
		filter = ParseProcedure(*procedure)
	}

	results, err := s.search.Search(ctx, center, radiusKm, filter)
	if err != nil {
		return nil, err
	}

	return &SearchOutcome{
		TotalResults: len(results),
		SearchParams: SearchParams{
			DRG:               procedure,
			ZipCode:           zip,
			RadiusKm:          radiusKm,
			CenterCoordinates: center,
		},
		Providers: results,
	}, nil
}

// Suggest returns up to MaxSuggestions distinct (code, description) pairs
// whose description contains partial or whose code starts with it.
func (s *Service) Suggest(ctx context.Context, partial string) ([]Suggestion, error) {
	partial = strings.TrimSpace(partial)
	out := []Suggestion{}
	if partial == "" {
		return out, nil
	}

	esc := escapeLike(partial)
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT drg_cd, drg_desc
		FROM providers
		WHERE drg_desc ILIKE ? ESCAPE '\'
			OR drg_cd::text LIKE ? ESCAPE '\'
		ORDER BY drg_cd, drg_desc
		LIMIT ?
	`, "%"+esc+"%", esc+"%", MaxSuggestions).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("drg suggestions: %w", err)
	}
	return out, nil
}

// Details aggregates all procedure rows and ratings for one CCN.
func (s *Service) Details(ctx context.Context, ccn string) (*ProviderDetail, error) {
	var identity []Provider
	if err := s.db.WithContext(ctx).
		Where("rndrng_prvdr_ccn = ?", ccn).
		Order("id").
		Limit(1).
		Find(&identity).Error; err != nil {
		return nil, fmt.Errorf("provider lookup: %w", err)
	}
	if len(identity) == 0 {
		return nil, ErrProviderNotFound
	}
	p := identity[0]

	var codes pq.Int64Array
	if err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(array_agg(drg_cd::bigint ORDER BY drg_cd), '{}')
		FROM providers
		WHERE rndrng_prvdr_ccn = ?
	`, ccn).Row().Scan(&codes); err != nil {
		return nil, fmt.Errorf("provider procedures: %w", err)
	}

	var agg struct {
		AverageRating   *float64
		CategoriesRated int64
		TotalReviews    int64
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT
			AVG(rating)::float8 AS average_rating,
			COUNT(DISTINCT rating_category) AS categories_rated,
			COALESCE(SUM(review_count), 0) AS total_reviews
		FROM provider_ratings
		WHERE provider_ccn = ?
	`, ccn).Scan(&agg).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("provider ratings: %w", err)
	}

	if agg.AverageRating != nil {
		avg := math.Round(*agg.AverageRating*10) / 10
		agg.AverageRating = &avg
	}

	return &ProviderDetail{
		CCN:     p.CCN,
		OrgName: p.OrgName,
		Address: AddressOut{
			Street: p.Street,
			City:   p.City,
			State:  p.State,
			Zip:    p.Zip5,
		},
		Ratings: RatingsOut{
			Average:         agg.AverageRating,
			TotalReviews:    agg.TotalReviews,
			CategoriesRated: agg.CategoriesRated,
		},
		ProcedureCodes: []int64(codes),
	}, nil
}
