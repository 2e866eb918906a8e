package providers

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"testing"

	"github.com/EmpoweredVote/cost-navigator/internal/providers/geocoding"
	"github.com/EmpoweredVote/cost-navigator/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB is nil when Postgres could not be started; storage tests skip.
var testDB *testdb.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	var err error
	testDB, err = testdb.Start(15433)
	if err != nil {
		log.Printf("[providers_test] embedded postgres unavailable: %v", err)
		testDB = nil
	}

	code := m.Run()
	testDB.Stop()
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("skipping storage test (embedded postgres not running)")
	}
}

// stubGeocoder serves fixed points and counts calls.
type stubGeocoder struct {
	points map[string]geocoding.Result
	err    error
	calls  int
}

func (s *stubGeocoder) GeocodeZip(_ context.Context, zip string) (*geocoding.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.points[zip]; ok {
		return &p, nil
	}
	return nil, errors.New("no results")
}

func newTestService(geocoder ZipGeocoder) *Service {
	geo := NewGeoResolver(testDB.Gorm, geocoder)
	return NewService(testDB.Gorm, geo, NewSpatialSearch(testDB.Gorm))
}

func ccns(rows []SearchResult) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CCN
	}
	return out
}

func TestServiceSearch_DRGCodeWithinRadius(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)

	drg := "470"
	out, err := svc.Search(context.Background(), &drg, "10001", 50)
	require.NoError(t, err)

	assert.Equal(t, "10001", out.SearchParams.ZipCode)
	assert.InDelta(t, 40.7128, out.SearchParams.CenterCoordinates.Latitude, 1e-6)
	assert.InDelta(t, -74.0060, out.SearchParams.CenterCoordinates.Longitude, 1e-6)

	// Cheapest first, NULL charge last; Philadelphia is out of range and
	// the ungeocoded row is excluded.
	assert.Equal(t, []string{"330002", "330001", "310001"}, ccns(out.Providers))
	assert.Equal(t, len(out.Providers), out.TotalResults)

	for _, p := range out.Providers {
		assert.Equal(t, 470, p.DRGCode)
		assert.LessOrEqual(t, p.DistanceKm, 50.0)
	}

	manhattan := out.Providers[1]
	require.NotNil(t, manhattan.OverallRating)
	assert.InDelta(t, 8.5, *manhattan.OverallRating, 1e-9)
	require.NotNil(t, manhattan.ReviewCount)
	assert.Equal(t, 100, *manhattan.ReviewCount)

	brooklyn := out.Providers[0]
	assert.Nil(t, brooklyn.OverallRating)
	assert.Nil(t, brooklyn.ReviewCount)
	require.NotNil(t, brooklyn.AvgCharge)
	assert.InDelta(t, 60000.0, *brooklyn.AvgCharge, 1e-6)

	assert.Nil(t, out.Providers[2].AvgCharge)
}

func TestServiceSearch_DistanceMatchesHaversine(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)

	out, err := svc.Search(context.Background(), nil, "10001", 50)
	require.NoError(t, err)
	require.NotEmpty(t, out.Providers)

	center := out.SearchParams.CenterCoordinates
	for _, p := range out.Providers {
		require.NotNil(t, p.Latitude)
		want := HaversineKm(center, Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude})
		assert.InDelta(t, want, p.DistanceKm, 0.01, p.CCN)
	}
}

func TestServiceSearch_WideRadiusIncludesFarProvider(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)

	drg := "470"
	out, err := svc.Search(context.Background(), &drg, "10001", 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"390001", "330002", "330001", "310001"}, ccns(out.Providers))
}

func TestServiceSearch_Keyword(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)

	kw := "heart failure"
	out, err := svc.Search(context.Background(), &kw, "10001", 50)
	require.NoError(t, err)
	require.Len(t, out.Providers, 1)
	assert.Equal(t, 291, out.Providers[0].DRGCode)
	require.NotNil(t, out.SearchParams.DRG)
	assert.Equal(t, "heart failure", *out.SearchParams.DRG)

	kw = "100%"
	out, err = svc.Search(context.Background(), &kw, "10001", 50)
	require.NoError(t, err)
	assert.Empty(t, out.Providers)
	assert.NotNil(t, out.Providers)
}

func TestServiceSearch_Unfiltered(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)

	out, err := svc.Search(context.Background(), nil, "10001", 50)
	require.NoError(t, err)
	require.Len(t, out.Providers, 4)
	assert.Equal(t, 291, out.Providers[0].DRGCode)
	assert.Nil(t, out.SearchParams.DRG)
}

func TestServiceSearch_ZipErrors(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)

	_, err := svc.Search(context.Background(), nil, "", 50)
	assert.ErrorIs(t, err, ErrZipRequired)

	_, err = svc.Search(context.Background(), nil, "1000", 50)
	assert.ErrorIs(t, err, ErrInvalidZip)

	_, err = svc.Search(context.Background(), nil, "10001", 0)
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = svc.Search(context.Background(), nil, "99999", 50)
	assert.ErrorIs(t, err, ErrZipNotFound)

	// Stored row without coordinates and no geocoder.
	_, err = svc.Search(context.Background(), nil, "12345", 50)
	assert.ErrorIs(t, err, ErrZipNotFound)
}

func TestGeoResolver_StoredBeforeGeocoder(t *testing.T) {
	requireDB(t)
	stub := &stubGeocoder{points: map[string]geocoding.Result{
		"10001": {Zip: "10001", Lat: 1, Lng: 1},
	}}
	geo := NewGeoResolver(testDB.Gorm, stub)

	c, err := geo.Resolve(context.Background(), "10001")
	require.NoError(t, err)
	assert.InDelta(t, 40.7128, c.Latitude, 1e-6)
	assert.Zero(t, stub.calls)
}

func TestGeoResolver_GeocoderFallback(t *testing.T) {
	requireDB(t)
	stub := &stubGeocoder{points: map[string]geocoding.Result{
		"12345": {Zip: "12345", City: "Schenectady", State: "NY", Lat: 42.8142, Lng: -73.9396},
	}}
	geo := NewGeoResolver(testDB.Gorm, stub)

	c, err := geo.Resolve(context.Background(), "12345")
	require.NoError(t, err)
	assert.InDelta(t, 42.8142, c.Latitude, 1e-9)
	assert.Equal(t, 1, stub.calls)

	// Resolve does not write the fallback result back.
	var row ZipCode
	require.NoError(t, testDB.Gorm.Where("zip_code = ?", "12345").First(&row).Error)
	assert.Nil(t, row.Latitude)
}

func TestGeoResolver_GeocoderFailureIsNotFound(t *testing.T) {
	requireDB(t)
	geo := NewGeoResolver(testDB.Gorm, &stubGeocoder{err: errors.New("quota exceeded")})

	_, err := geo.Resolve(context.Background(), "88888")
	assert.ErrorIs(t, err, ErrZipNotFound)

	geo = NewGeoResolver(testDB.Gorm, &stubGeocoder{points: map[string]geocoding.Result{
		"77777": {Zip: "77777", Lat: 0, Lng: 0},
	}})
	_, err = geo.Resolve(context.Background(), "77777")
	assert.ErrorIs(t, err, ErrZipNotFound)
}

func TestGeoResolver_Warm(t *testing.T) {
	requireDB(t)
	stub := &stubGeocoder{points: map[string]geocoding.Result{
		"60601": {Zip: "60601", City: "Chicago", State: "IL", Lat: 41.8864, Lng: -87.6186},
	}}
	geo := NewGeoResolver(testDB.Gorm, stub)
	t.Cleanup(func() { testDB.Gorm.Exec("DELETE FROM zip_codes WHERE zip_code = ?", "60601") })

	_, err := geo.Warm(context.Background(), "60601")
	require.NoError(t, err)

	// Second warm updates in place.
	_, err = geo.Warm(context.Background(), "60601")
	require.NoError(t, err)

	stored := NewGeoResolver(testDB.Gorm, nil)
	c, err := stored.Resolve(context.Background(), "60601")
	require.NoError(t, err)
	assert.InDelta(t, 41.8864, c.Latitude, 1e-6)

	_, err = geo.Warm(context.Background(), "00000")
	assert.ErrorIs(t, err, ErrZipNotFound)
}

func TestServiceSuggest(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)
	ctx := context.Background()

	got, err := svc.Suggest(ctx, "knee")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 470, got[0].DRGCode)

	got, err = svc.Suggest(ctx, "29")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 291, got[0].DRGCode)

	got, err = svc.Suggest(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestServiceDetails(t *testing.T) {
	requireDB(t)
	svc := newTestService(nil)
	ctx := context.Background()

	d, err := svc.Details(ctx, "330001")
	require.NoError(t, err)
	assert.Equal(t, "Manhattan General Hospital", d.OrgName)
	require.NotNil(t, d.Address.State)
	assert.Equal(t, "NY", *d.Address.State)
	assert.Equal(t, []int64{291, 470}, d.ProcedureCodes)
	assert.EqualValues(t, 2, d.Ratings.CategoriesRated)
	assert.EqualValues(t, 140, d.Ratings.TotalReviews)
	require.NotNil(t, d.Ratings.Average)
	assert.InDelta(t, 7.8, *d.Ratings.Average, 1e-9)

	d, err = svc.Details(ctx, "330002")
	require.NoError(t, err)
	assert.Nil(t, d.Ratings.Average)
	assert.Zero(t, d.Ratings.TotalReviews)
	assert.Equal(t, []int64{470}, d.ProcedureCodes)

	_, err = svc.Details(ctx, "000000")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}
