package providers

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/EmpoweredVote/cost-navigator/internal/providers/geocoding"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ZipGeocoder is the external point-lookup capability used when a ZIP is
// missing from zip_codes.
type ZipGeocoder interface {
	GeocodeZip(ctx context.Context, zip string) (*geocoding.Result, error)
}

// GeoResolver maps ZIP codes to coordinates: stored rows first, live
// geocoding second. Resolve never writes; Warm is the explicit write-back.
type GeoResolver struct {
	db       *gorm.DB
	geocoder ZipGeocoder
}

// NewGeoResolver builds a resolver. geocoder may be nil to disable the fallback.
func NewGeoResolver(db *gorm.DB, geocoder ZipGeocoder) *GeoResolver {
	return &GeoResolver{db: db, geocoder: geocoder}
}

// Resolve returns the coordinates for zip or ErrZipNotFound. Geocoder
// failures are logged and treated as no result.
func (g *GeoResolver) Resolve(ctx context.Context, zip string) (Coordinates, error) {
	stored, err := g.lookupStored(ctx, zip)
	if err != nil {
		return Coordinates{}, err
	}
	if stored != nil {
		return *stored, nil
	}

	if res := g.geocode(ctx, zip); res != nil {
		return Coordinates{Latitude: res.Lat, Longitude: res.Lng}, nil
	}
	return Coordinates{}, ErrZipNotFound
}

// Warm geocodes zip live and upserts it into zip_codes so later Resolve
// calls are served from storage.
func (g *GeoResolver) Warm(ctx context.Context, zip string) (Coordinates, error) {
	res := g.geocode(ctx, zip)
	if res == nil {
		return Coordinates{}, ErrZipNotFound
	}

	row := ZipCode{
		ZipCode:   zip,
		City:      nonEmpty(res.City),
		StateCode: nonEmpty(res.State),
		Latitude:  &res.Lat,
		Longitude: &res.Lng,
	}
	if err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "zip_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"city", "state_code", "latitude", "longitude"}),
	}).Create(&row).Error; err != nil {
		return Coordinates{}, fmt.Errorf("upsert zip %s: %w", zip, err)
	}

	return Coordinates{Latitude: res.Lat, Longitude: res.Lng}, nil
}

func (g *GeoResolver) lookupStored(ctx context.Context, zip string) (*Coordinates, error) {
	var rows []ZipCode
	if err := g.db.WithContext(ctx).
		Where("zip_code = ?", zip).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("zip lookup: %w", err)
	}
	if len(rows) == 0 || rows[0].Latitude == nil || rows[0].Longitude == nil {
		return nil, nil
	}
	return &Coordinates{Latitude: *rows[0].Latitude, Longitude: *rows[0].Longitude}, nil
}

func (g *GeoResolver) geocode(ctx context.Context, zip string) *geocoding.Result {
	if g.geocoder == nil {
		return nil
	}
	res, err := g.geocoder.GeocodeZip(ctx, zip)
	if err != nil {
		log.Printf("[geo] zip=%s geocoder err=%v", zip, err)
		return nil
	}
	if res == nil || !validPoint(res.Lat, res.Lng) {
		return nil
	}
	return res
}

func validPoint(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
