package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trojmiasto-monitor/internal/core/domain"
)

func fptr(v float64) *float64 { return &v }

// memStore - хранилище в памяти с той же семантикой сверки, что и Postgres-адаптер.
type memStore struct {
	mu          sync.Mutex
	rows        []domain.Listing
	existingErr error
}

func (s *memStore) ExistingURLs(ctx context.Context) (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existingErr != nil {
		return nil, s.existingErr
	}
	existing := make(map[string]time.Time)
	for _, row := range s.rows {
		if row.IsLatest {
			existing[row.URL] = row.ScrapedTs
		}
	}
	return existing, nil
}

func (s *memStore) latestIndex(url string) int {
	for i := range s.rows {
		if s.rows[i].URL == url && s.rows[i].IsLatest {
			return i
		}
	}
	return -1
}

func (s *memStore) IsChanged(ctx context.Context, url string, candidate domain.Listing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.latestIndex(url)
	if idx < 0 {
		return true, nil
	}
	return !domain.ComparisonEqual(s.rows[idx], candidate), nil
}

func (s *memStore) Retire(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.latestIndex(url); idx >= 0 {
		s.rows[idx].IsLatest = false
	}
	return nil
}

func (s *memStore) Insert(ctx context.Context, listing domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(listing)
}

func (s *memStore) insertLocked(listing domain.Listing) error {
	if s.latestIndex(listing.URL) >= 0 {
		return domain.ErrDuplicateLatest
	}
	listing.IsLatest = true
	if listing.ScrapedTs.IsZero() {
		listing.ScrapedTs = time.Now()
	}
	if listing.CreatedTs.IsZero() {
		listing.CreatedTs = listing.ScrapedTs
	}
	s.rows = append(s.rows, listing)
	return nil
}

func (s *memStore) TouchScrapedTs(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.latestIndex(url); idx >= 0 {
		s.rows[idx].ScrapedTs = time.Now()
	}
	return nil
}

func (s *memStore) Reconcile(ctx context.Context, candidate domain.Listing) (domain.ReconcileOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := domain.ReconcileOutcome{URL: candidate.URL}
	idx := s.latestIndex(candidate.URL)
	switch {
	case idx < 0:
		if err := s.insertLocked(candidate); err != nil {
			return outcome, err
		}
		outcome.Status = domain.StatusNew
	case !domain.ComparisonEqual(s.rows[idx], candidate):
		s.rows[idx].IsLatest = false
		if err := s.insertLocked(candidate); err != nil {
			return outcome, err
		}
		outcome.Status = domain.StatusChanged
	default:
		s.rows[idx].ScrapedTs = time.Now()
		outcome.Status = domain.StatusUnchanged
	}
	return outcome, nil
}

// countRows возвращает (всего строк, актуальных строк) для URL.
func (s *memStore) countRows(url string) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total, latest := 0, 0
	for _, row := range s.rows {
		if row.URL == url {
			total++
			if row.IsLatest {
				latest++
			}
		}
	}
	return total, latest
}

type fakeFetcher struct {
	links   map[string][]string
	details map[string]*domain.RawListing
	linkErr error

	mu           sync.Mutex
	detailCalls  map[string]int
	linksFetched int
}

func (f *fakeFetcher) FetchListingLinks(ctx context.Context, seedURL string) ([]string, int, error) {
	f.mu.Lock()
	f.linksFetched++
	f.mu.Unlock()
	return f.links[seedURL], 1, f.linkErr
}

func (f *fakeFetcher) FetchAdDetails(ctx context.Context, adURL string) (*domain.RawListing, error) {
	f.mu.Lock()
	if f.detailCalls == nil {
		f.detailCalls = make(map[string]int)
	}
	f.detailCalls[adURL]++
	f.mu.Unlock()

	raw, ok := f.details[adURL]
	if !ok {
		return nil, errors.New("404")
	}
	return raw, nil
}

type fakeGeocoder struct {
	location *domain.GeoLocation
	err      error
}

func (f *fakeGeocoder) Resolve(ctx context.Context, address string) (*domain.GeoLocation, error) {
	return f.location, f.err
}

type fakeDistances struct{}

func (fakeDistances) CoastlineDistance(lat, lon float64) (float64, error) { return 2.5, nil }

func (fakeDistances) ReferenceDistances(lat, lon float64) map[string]float64 {
	return map[string]float64{"Gdańsk": 4.2, "Gdynia": 16.1, "Sopot": 7.7}
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.ListingChangeEvent
	err    error
}

func (f *fakeEvents) PublishChange(ctx context.Context, event domain.ListingChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func rawListing(url, price string) *domain.RawListing {
	return &domain.RawListing{
		URL:          url,
		Title:        "Mieszkanie Gdańsk",
		Price:        price,
		SquareMeters: "50 m²",
		Address:      []string{"Gdańsk", "Wrzeszcz"},
	}
}

func newProcessUC(store *memStore, fetcher *fakeFetcher, geocoder *fakeGeocoder, events *fakeEvents) *ProcessListingUseCase {
	if events == nil {
		return NewProcessListingUseCase(fetcher, store, geocoder, fakeDistances{}, nil)
	}
	return NewProcessListingUseCase(fetcher, store, geocoder, fakeDistances{}, events)
}

func TestProcessListingNewURL(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{details: map[string]*domain.RawListing{
		"https://x/1": rawListing("https://x/1", "500 000 zł"),
	}}
	geocoder := &fakeGeocoder{location: &domain.GeoLocation{Latitude: 54.38, Longitude: 18.61, City: "Gdańsk", Area: "Wrzeszcz"}}
	events := &fakeEvents{}
	uc := newProcessUC(store, fetcher, geocoder, events)

	outcome, err := uc.Execute(context.Background(), "https://x/1")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if outcome.Status != domain.StatusNew {
		t.Errorf("expected StatusNew, got %s", outcome.Status)
	}

	total, latest := store.countRows("https://x/1")
	if total != 1 || latest != 1 {
		t.Errorf("expected 1 row / 1 latest, got %d/%d", total, latest)
	}

	stored := store.rows[0]
	if stored.Price == nil || *stored.Price != 500000 {
		t.Errorf("unexpected price: %v", stored.Price)
	}
	// цена за метр достроена из цены и площади
	if stored.PricePerSqrMeter == nil || *stored.PricePerSqrMeter != 10000 {
		t.Errorf("expected derived price per meter 10000, got %v", stored.PricePerSqrMeter)
	}
	if stored.Latitude == nil || stored.Area == nil || *stored.Area != "Wrzeszcz" {
		t.Errorf("geo enrichment missing: %+v", stored)
	}
	if stored.CoastlineDistance == nil || *stored.CoastlineDistance != 2.5 {
		t.Errorf("coastline distance missing: %v", stored.CoastlineDistance)
	}
	if stored.GdanskDowntownDistance == nil || stored.SopotDowntownDistance == nil {
		t.Error("reference distances missing")
	}

	if len(events.events) != 1 || events.events[0].Status != domain.StatusNew {
		t.Errorf("expected one listing.new event, got %+v", events.events)
	}
}

func TestProcessListingGeocodingFailureIsNotFatal(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{details: map[string]*domain.RawListing{
		"https://x/1": rawListing("https://x/1", "500 000 zł"),
	}}
	geocoder := &fakeGeocoder{err: domain.ErrGeocodingFailed}
	uc := newProcessUC(store, fetcher, geocoder, nil)

	outcome, err := uc.Execute(context.Background(), "https://x/1")
	if err != nil {
		t.Fatalf("geocoding failure must not fail processing: %v", err)
	}
	if outcome.Status != domain.StatusNew {
		t.Errorf("expected StatusNew, got %s", outcome.Status)
	}

	stored := store.rows[0]
	if stored.Latitude != nil || stored.CoastlineDistance != nil || stored.Area != nil {
		t.Errorf("geo fields must be absent after failure: %+v", stored)
	}
}

func TestProcessListingPriceChangeCreatesVersion(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{details: map[string]*domain.RawListing{
		"https://x/1": rawListing("https://x/1", "500 000 zł"),
	}}
	geocoder := &fakeGeocoder{err: domain.ErrGeocodingFailed}
	events := &fakeEvents{}
	uc := newProcessUC(store, fetcher, geocoder, events)

	if _, err := uc.Execute(context.Background(), "https://x/1"); err != nil {
		t.Fatalf("first run: %v", err)
	}

	fetcher.details["https://x/1"] = rawListing("https://x/1", "520 000 zł")
	outcome, err := uc.Execute(context.Background(), "https://x/1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if outcome.Status != domain.StatusChanged {
		t.Errorf("expected StatusChanged, got %s", outcome.Status)
	}

	total, latest := store.countRows("https://x/1")
	if total != 2 {
		t.Errorf("expected 2 history rows, got %d", total)
	}
	if latest != 1 {
		t.Errorf("invariant violated: %d latest rows", latest)
	}

	if len(events.events) != 2 || events.events[1].Status != domain.StatusChanged {
		t.Errorf("expected new+changed events, got %+v", events.events)
	}
}

func TestProcessListingUnchangedTouchesOnly(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{details: map[string]*domain.RawListing{
		"https://x/1": rawListing("https://x/1", "500 000 zł"),
	}}
	geocoder := &fakeGeocoder{err: domain.ErrGeocodingFailed}
	events := &fakeEvents{}
	uc := newProcessUC(store, fetcher, geocoder, events)

	if _, err := uc.Execute(context.Background(), "https://x/1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstScraped := store.rows[0].ScrapedTs

	time.Sleep(5 * time.Millisecond)
	outcome, err := uc.Execute(context.Background(), "https://x/1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if outcome.Status != domain.StatusUnchanged {
		t.Errorf("expected StatusUnchanged, got %s", outcome.Status)
	}

	total, _ := store.countRows("https://x/1")
	if total != 1 {
		t.Errorf("unchanged listing must not create a version, got %d rows", total)
	}
	if !store.rows[0].ScrapedTs.After(firstScraped) {
		t.Error("scraped_ts must advance on re-observation")
	}
	if len(events.events) != 1 {
		t.Errorf("unchanged outcome must not publish events, got %d", len(events.events))
	}
}

func TestProcessListingEventFailureDoesNotFail(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{details: map[string]*domain.RawListing{
		"https://x/1": rawListing("https://x/1", "500 000 zł"),
	}}
	geocoder := &fakeGeocoder{err: domain.ErrGeocodingFailed}
	events := &fakeEvents{err: errors.New("broker down")}
	uc := newProcessUC(store, fetcher, geocoder, events)

	if _, err := uc.Execute(context.Background(), "https://x/1"); err != nil {
		t.Fatalf("publish failure must not fail the reconcile: %v", err)
	}
}

func newSessionUC(store *memStore, fetcher *fakeFetcher, freshnessDays, workers int) *RunCrawlSessionUseCase {
	processor := newProcessUC(store, fetcher, &fakeGeocoder{err: domain.ErrGeocodingFailed}, nil)
	return NewRunCrawlSessionUseCase(fetcher, store, processor,
		[]string{"https://seed/1"}, freshnessDays, workers)
}

func TestRunCrawlSessionSkipPolicy(t *testing.T) {
	store := &memStore{}
	// свежая запись: подтверждена 2 дня назад при окне 7 дней
	fresh := rawListing("https://x/fresh", "400 000 zł")
	freshListing := domain.Listing{URL: fresh.URL, Price: fptr(400000), PricePerSqrMeter: fptr(8000)}
	freshListing.ScrapedTs = time.Now().Add(-2 * 24 * time.Hour)
	if err := store.Insert(context.Background(), freshListing); err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	// устаревшая запись: подтверждена 10 дней назад
	stale := domain.Listing{URL: "https://x/stale", Price: fptr(300000)}
	stale.ScrapedTs = time.Now().Add(-10 * 24 * time.Hour)
	if err := store.Insert(context.Background(), stale); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	fetcher := &fakeFetcher{
		links: map[string][]string{
			"https://seed/1": {"https://x/fresh", "https://x/stale", "https://x/new"},
		},
		details: map[string]*domain.RawListing{
			"https://x/stale": rawListing("https://x/stale", "300 000 zł"),
			"https://x/new":   rawListing("https://x/new", "600 000 zł"),
		},
	}

	uc := newSessionUC(store, fetcher, 7, 4)
	stats, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if stats.Discovered != 3 {
		t.Errorf("expected 3 discovered, got %d", stats.Discovered)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected 1 skipped (fresh), got %d", stats.Skipped)
	}
	if stats.New != 1 || stats.Unchanged != 1 {
		t.Errorf("expected 1 new and 1 unchanged, got %+v", stats)
	}
	// пропущенный URL не стоил запроса деталей
	if fetcher.detailCalls["https://x/fresh"] != 0 {
		t.Error("fresh URL must not be fetched")
	}
	if fetcher.detailCalls["https://x/stale"] != 1 || fetcher.detailCalls["https://x/new"] != 1 {
		t.Errorf("unexpected detail calls: %+v", fetcher.detailCalls)
	}
}

func TestRunCrawlSessionCountsFailures(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{
		links: map[string][]string{
			"https://seed/1": {"https://x/ok", "https://x/broken"},
		},
		details: map[string]*domain.RawListing{
			"https://x/ok": rawListing("https://x/ok", "500 000 zł"),
		},
	}

	uc := newSessionUC(store, fetcher, 7, 2)
	stats, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if stats.New != 1 || stats.Failed != 1 {
		t.Errorf("expected 1 new and 1 failed, got %+v", stats)
	}
}

func TestRunCrawlSessionExistingURLsFaultDisablesSkip(t *testing.T) {
	store := &memStore{existingErr: errors.New("connection refused")}
	fetcher := &fakeFetcher{
		links: map[string][]string{
			"https://seed/1": {"https://x/1"},
		},
		details: map[string]*domain.RawListing{
			"https://x/1": rawListing("https://x/1", "500 000 zł"),
		},
	}

	uc := newSessionUC(store, fetcher, 7, 1)
	stats, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute must survive ExistingURLs fault: %v", err)
	}
	if stats.Skipped != 0 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRunCrawlSessionDeduplicatesAcrossSeeds(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{
		links: map[string][]string{
			"https://seed/1": {"https://x/1"},
			"https://seed/2": {"https://x/1"},
		},
		details: map[string]*domain.RawListing{
			"https://x/1": rawListing("https://x/1", "500 000 zł"),
		},
	}
	processor := newProcessUC(store, fetcher, &fakeGeocoder{err: domain.ErrGeocodingFailed}, nil)
	uc := NewRunCrawlSessionUseCase(fetcher, store, processor,
		[]string{"https://seed/1", "https://seed/2"}, 7, 2)

	stats, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if stats.Discovered != 1 {
		t.Errorf("duplicate link across seeds must count once, got %d", stats.Discovered)
	}
	if fetcher.detailCalls["https://x/1"] != 1 {
		t.Errorf("expected single detail fetch, got %d", fetcher.detailCalls["https://x/1"])
	}
}
