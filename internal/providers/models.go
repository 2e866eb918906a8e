package providers

import (
	"errors"
	"time"
)

// Errors surfaced to the HTTP layer.
var (
	ErrZipRequired      = errors.New("zip code is required")
	ErrInvalidZip       = errors.New("zip code must be 5 digits")
	ErrInvalidRadius    = errors.New("radius_km is out of range")
	ErrZipNotFound      = errors.New("zip not found")
	ErrProviderNotFound = errors.New("provider not found")
)

// Provider is one (CCN, DRG) row loaded by the ETL. Read-only here.
type Provider struct {
	ID             int64    `gorm:"primaryKey" json:"id"`
	CCN            string   `gorm:"column:rndrng_prvdr_ccn;size:10;uniqueIndex:uq_provider_drg" json:"rndrng_prvdr_ccn"`
	OrgName        string   `gorm:"column:rndrng_prvdr_org_name;size:255;not null" json:"rndrng_prvdr_org_name"`
	City           *string  `gorm:"column:rndrng_prvdr_city;size:100" json:"rndrng_prvdr_city"`
	Street         *string  `gorm:"column:rndrng_prvdr_st" json:"rndrng_prvdr_st"`
	StateFIPS      *int     `gorm:"column:rndrng_prvdr_state_fips" json:"rndrng_prvdr_state_fips"`
	Zip5           *string  `gorm:"column:rndrng_prvdr_zip5;size:5;index" json:"rndrng_prvdr_zip5"`
	State          *string  `gorm:"column:rndrng_prvdr_state_abrvtn;size:2;index" json:"rndrng_prvdr_state_abrvtn"`
	DRGCode        int      `gorm:"column:drg_cd;not null;uniqueIndex:uq_provider_drg" json:"drg_cd"`
	DRGDesc        *string  `gorm:"column:drg_desc" json:"drg_desc"`
	Discharges     *int     `gorm:"column:tot_dschrgs" json:"tot_dschrgs"`
	AvgCharge      *float64 `gorm:"column:avg_submtd_cvrd_chrg;type:decimal(12,2)" json:"avg_submtd_cvrd_chrg"`
	AvgTotalPay    *float64 `gorm:"column:avg_tot_pymt_amt;type:decimal(12,2)" json:"avg_tot_pymt_amt"`
	AvgMedicarePay *float64 `gorm:"column:avg_mdcr_pymt_amt;type:decimal(12,2)" json:"avg_mdcr_pymt_amt"`
	Latitude       *float64 `gorm:"column:latitude;type:decimal(10,8)" json:"latitude"`
	Longitude      *float64 `gorm:"column:longitude;type:decimal(11,8)" json:"longitude"`
}

func (Provider) TableName() string { return "providers" }

// ProviderRating is keyed by (CCN, category). Soft reference to Provider by CCN.
type ProviderRating struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	ProviderCCN string    `gorm:"column:provider_ccn;size:10;not null;uniqueIndex:uq_provider_rating_category" json:"provider_ccn"`
	Rating      float64   `gorm:"column:rating;type:decimal(3,1);not null" json:"rating"`
	Category    *string   `gorm:"column:rating_category;size:50;uniqueIndex:uq_provider_rating_category" json:"rating_category"`
	ReviewCount int       `gorm:"column:review_count;default:0" json:"review_count"`
	LastUpdated time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (ProviderRating) TableName() string { return "provider_ratings" }

// ZipCode is a geocoded 5-digit ZIP.
type ZipCode struct {
	ZipCode   string   `gorm:"column:zip_code;primaryKey;size:5" json:"zip_code"`
	City      *string  `gorm:"column:city;size:100" json:"city"`
	StateCode *string  `gorm:"column:state_code;size:2" json:"state_code"`
	Latitude  *float64 `gorm:"column:latitude;type:decimal(10,8)" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude;type:decimal(11,8)" json:"longitude"`
}

func (ZipCode) TableName() string { return "zip_codes" }

// OverallCategory is the rating category joined into search results.
const OverallCategory = "overall"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchResult is one provider row within the search radius. Nullable
// columns stay nil rather than being coerced to zero.
type SearchResult struct {
	ID             int64    `gorm:"column:id" json:"id"`
	CCN            string   `gorm:"column:rndrng_prvdr_ccn" json:"rndrng_prvdr_ccn"`
	OrgName        string   `gorm:"column:rndrng_prvdr_org_name" json:"rndrng_prvdr_org_name"`
	City           *string  `gorm:"column:rndrng_prvdr_city" json:"rndrng_prvdr_city"`
	Street         *string  `gorm:"column:rndrng_prvdr_st" json:"rndrng_prvdr_st"`
	State          *string  `gorm:"column:rndrng_prvdr_state_abrvtn" json:"rndrng_prvdr_state_abrvtn"`
	Zip5           *string  `gorm:"column:rndrng_prvdr_zip5" json:"rndrng_prvdr_zip5"`
	DRGCode        int      `gorm:"column:drg_cd" json:"drg_cd"`
	DRGDesc        *string  `gorm:"column:drg_desc" json:"drg_desc"`
	Discharges     *int     `gorm:"column:tot_dschrgs" json:"tot_dschrgs"`
	AvgCharge      *float64 `gorm:"column:avg_submtd_cvrd_chrg" json:"avg_submtd_cvrd_chrg"`
	AvgTotalPay    *float64 `gorm:"column:avg_tot_pymt_amt" json:"avg_tot_pymt_amt"`
	AvgMedicarePay *float64 `gorm:"column:avg_mdcr_pymt_amt" json:"avg_mdcr_pymt_amt"`
	Latitude       *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude      *float64 `gorm:"column:longitude" json:"longitude"`
	DistanceKm     float64  `gorm:"column:distance_km" json:"distance_km"`
	OverallRating  *float64 `gorm:"column:overall_rating" json:"overall_rating"`
	ReviewCount    *int     `gorm:"column:review_count" json:"review_count"`
}

// SearchParams echoes what the caller asked for.
type SearchParams struct {
	DRG               *string     `json:"drg"`
	ZipCode           string      `json:"zip_code"`
	RadiusKm          float64     `json:"radius_km"`
	CenterCoordinates Coordinates `json:"center_coordinates"`
}

// SearchOutcome is the /providers response body.
type SearchOutcome struct {
	TotalResults int            `json:"total_results"`
	SearchParams SearchParams   `json:"search_params"`
	Providers    []SearchResult `json:"providers"`
}

// Suggestion is one DRG autocomplete entry.
type Suggestion struct {
	DRGCode int     `gorm:"column:drg_cd" json:"drg_cd"`
	DRGDesc *string `gorm:"column:drg_desc" json:"drg_desc"`
}

type AddressOut struct {
	Street *string `json:"street"`
	City   *string `json:"city"`
	State  *string `json:"state"`
	Zip    *string `json:"zip"`
}

type RatingsOut struct {
	Average         *float64 `json:"average"`
	TotalReviews    int64    `json:"total_reviews"`
	CategoriesRated int64    `json:"categories_rated"`
}

// ProviderDetail aggregates every procedure row for one CCN.
type ProviderDetail struct {
	CCN            string     `json:"rndrng_prvdr_ccn"`
	OrgName        string     `json:"rndrng_prvdr_org_name"`
	Address        AddressOut `json:"address"`
	Ratings        RatingsOut `json:"ratings"`
	ProcedureCodes []int64    `json:"procedure_codes"`
}
