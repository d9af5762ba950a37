package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"trojmiasto-monitor/internal/core/domain"
)

type fakeQueryPort struct {
	listings []domain.Listing
	cities   []string
	err      error

	lastCities []string
	lastLimit  int
}

func (f *fakeQueryPort) AllListings(ctx context.Context) ([]domain.Listing, error) {
	return f.listings, f.err
}

func (f *fakeQueryPort) Cities(ctx context.Context) ([]string, error) {
	return f.cities, f.err
}

func (f *fakeQueryPort) MapData(ctx context.Context) ([]domain.Listing, error) {
	return f.listings, f.err
}

func (f *fakeQueryPort) ByCities(ctx context.Context, cities []string) ([]domain.Listing, error) {
	f.lastCities = cities
	return f.listings, f.err
}

func (f *fakeQueryPort) TopExpensive(ctx context.Context, limit int) ([]domain.Listing, error) {
	f.lastLimit = limit
	return f.listings, f.err
}

func (f *fakeQueryPort) TopAffordable(ctx context.Context, limit int) ([]domain.Listing, error) {
	f.lastLimit = limit
	return f.listings, f.err
}

func strPtr(s string) *string    { return &s }
func f64Ptr(v float64) *float64 { return &v }

func sampleListings() []domain.Listing {
	return []domain.Listing{
		{
			URL:   "https://ogloszenia.trojmiasto.pl/oferta-1.html",
			Title: strPtr("Mieszkanie Gdańsk"),
			Price: f64Ptr(500000),
			City:  strPtr("Gdańsk"),
		},
	}
}

func TestGetListingsReturnsJSON(t *testing.T) {
	handler := NewListingsHandler(&fakeQueryPort{listings: sampleListings()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	rec := httptest.NewRecorder()
	handler.GetListings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload []ListingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(payload) != 1 || payload[0].URL != "https://ogloszenia.trojmiasto.pl/oferta-1.html" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestGetListingsStoreFault(t *testing.T) {
	handler := NewListingsHandler(&fakeQueryPort{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	rec := httptest.NewRecorder()
	handler.GetListings(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error payload must be JSON: %v", err)
	}
	if payload["error"] == "" {
		t.Error("expected error field in payload")
	}
}

func TestGetByCitiesRequiresCityParam(t *testing.T) {
	handler := NewListingsHandler(&fakeQueryPort{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/by-cities", nil)
	rec := httptest.NewRecorder()
	handler.GetByCities(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetByCitiesPassesAllCities(t *testing.T) {
	fake := &fakeQueryPort{listings: sampleListings()}
	handler := NewListingsHandler(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/by-cities?city=Gda%C5%84sk&city=Sopot", nil)
	rec := httptest.NewRecorder()
	handler.GetByCities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(fake.lastCities) != 2 || fake.lastCities[0] != "Gdańsk" || fake.lastCities[1] != "Sopot" {
		t.Errorf("unexpected cities passed to port: %v", fake.lastCities)
	}
}

func TestGetTopExpensiveLimit(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantLimit int
	}{
		{name: "default limit", target: "/api/v1/listings/top-expensive", wantCode: http.StatusOK, wantLimit: 10},
		{name: "explicit limit", target: "/api/v1/listings/top-expensive?limit=5", wantCode: http.StatusOK, wantLimit: 5},
		{name: "invalid limit", target: "/api/v1/listings/top-expensive?limit=abc", wantCode: http.StatusBadRequest},
		{name: "non-positive limit", target: "/api/v1/listings/top-expensive?limit=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeQueryPort{listings: sampleListings()}
			handler := NewListingsHandler(fake)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			handler.GetTopExpensive(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantCode == http.StatusOK && fake.lastLimit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, fake.lastLimit)
			}
		})
	}
}

func TestGetCitiesEmptyResultIsEmptyArray(t *testing.T) {
	handler := NewListingsHandler(&fakeQueryPort{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/cities", nil)
	rec := httptest.NewRecorder()
	handler.GetCities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}
