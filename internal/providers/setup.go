package providers

import (
	"log"

	"github.com/EmpoweredVote/cost-navigator/internal/config"
	"github.com/EmpoweredVote/cost-navigator/internal/providers/geocoding"
	"gorm.io/gorm"
)

// Init wires the structured search path from process config.
func Init(db *gorm.DB, cfg config.Config) (*Service, *GeoResolver) {
	var geocoder ZipGeocoder
	if gc := geocoding.NewClient(cfg.GoogleMapsKey); gc != nil {
		geocoder = gc
		log.Printf("[providers] live ZIP geocoding enabled")
	} else {
		log.Printf("[providers] GOOGLE_MAPS_API_KEY not set; ZIPs resolve from zip_codes only")
	}

	geo := NewGeoResolver(db, geocoder)
	return NewService(db, geo, NewSpatialSearch(db)), geo
}
