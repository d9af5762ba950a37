package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/domain"
	"trojmiasto-monitor/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mmcloughlin/geohash"
)

// ListingStoreAdapter реализует ListingStorePort для PostgreSQL.
type ListingStoreAdapter struct {
	pool *pgxpool.Pool
}

// comparisonColumns подставляет доменный список колонок-компараторов в SQL,
// порядок колонок совпадает с порядком сканирования ниже.
var comparisonColumns = strings.Join(domain.ComparisonFields, ", ")

// NewListingStoreAdapter создает новый экземпляр адаптера.
func NewListingStoreAdapter(pool *pgxpool.Pool) (*ListingStoreAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingStoreAdapter{pool: pool}, nil
}

// ExistingURLs возвращает все актуальные URL с временем последнего подтверждения.
func (a *ListingStoreAdapter) ExistingURLs(ctx context.Context) (map[string]time.Time, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT url, scraped_ts FROM scraped_items WHERE is_latest`)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing urls: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]time.Time)
	for rows.Next() {
		var url string
		var scrapedTs time.Time
		if err := rows.Scan(&url, &scrapedTs); err != nil {
			return nil, fmt.Errorf("failed to scan existing url row: %w", err)
		}
		existing[url] = scrapedTs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading existing urls: %w", err)
	}
	return existing, nil
}

// IsChanged сравнивает поля-компараторы кандидата с актуальной версией.
// Отсутствие актуальной версии трактуется как изменение (fail-open).
func (a *ListingStoreAdapter) IsChanged(ctx context.Context, url string, candidate domain.Listing) (bool, error) {
	var stored domain.Listing
	err := a.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM scraped_items WHERE url = $1 AND is_latest`, comparisonColumns),
		url,
	).Scan(&stored.Price, &stored.PricePerSqrMeter)

	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil // новой записи не с чем сравнивать
	}
	if err != nil {
		return false, fmt.Errorf("failed to load latest row for %s: %w", url, err)
	}

	return !domain.ComparisonEqual(stored, candidate), nil
}

// Retire снимает флаг is_latest с актуальной версии. No-op, если ее нет.
func (a *ListingStoreAdapter) Retire(ctx context.Context, url string) error {
	_, err := a.pool.Exec(ctx,
		`UPDATE scraped_items SET is_latest = FALSE WHERE url = $1 AND is_latest`, url)
	if err != nil {
		return fmt.Errorf("failed to retire latest row for %s: %w", url, err)
	}
	return nil
}

// Insert добавляет новую версию с is_latest = TRUE.
func (a *ListingStoreAdapter) Insert(ctx context.Context, listing domain.Listing) error {
	return insertListing(ctx, a.pool, listing)
}

// TouchScrapedTs обновляет scraped_ts актуальной версии, не создавая новой.
func (a *ListingStoreAdapter) TouchScrapedTs(ctx context.Context, url string) error {
	_, err := a.pool.Exec(ctx,
		`UPDATE scraped_items SET scraped_ts = NOW() WHERE url = $1 AND is_latest`, url)
	if err != nil {
		return fmt.Errorf("failed to touch scraped_ts for %s: %w", url, err)
	}
	return nil
}

// Reconcile выполняет сверку одной записи в одной транзакции. Блокировка
// актуальной строки (FOR UPDATE) сериализует сверки одного URL; частичный
// сбой (retire прошел, insert нет) откатывается целиком и не оставляет URL
// без актуальной версии.
func (a *ListingStoreAdapter) Reconcile(ctx context.Context, candidate domain.Listing) (domain.ReconcileOutcome, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ListingStoreAdapter",
		"url":       candidate.URL,
	})

	outcome := domain.ReconcileOutcome{URL: candidate.URL}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return outcome, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var latestID int64
	var stored domain.Listing
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, %s
		   FROM scraped_items
		  WHERE url = $1 AND is_latest
		    FOR UPDATE`, comparisonColumns),
		candidate.URL,
	).Scan(&latestID, &stored.Price, &stored.PricePerSqrMeter)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// URL встречен впервые
		if err := insertListing(ctx, tx, candidate); err != nil {
			return outcome, err
		}
		outcome.Status = domain.StatusNew

	case err != nil:
		return outcome, fmt.Errorf("failed to lock latest row for %s: %w", candidate.URL, err)

	case !domain.ComparisonEqual(stored, candidate):
		// Поля-компараторы изменились: отзываем старую версию и пишем новую
		if _, err := tx.Exec(ctx,
			`UPDATE scraped_items SET is_latest = FALSE WHERE id = $1`, latestID); err != nil {
			return outcome, fmt.Errorf("failed to retire row %d: %w", latestID, err)
		}
		if err := insertListing(ctx, tx, candidate); err != nil {
			repoLogger.Error("Insert after retire failed, rolling back", err, nil)
			return outcome, err
		}
		outcome.Status = domain.StatusChanged

	default:
		// Изменений нет - только подтверждаем наблюдение
		if _, err := tx.Exec(ctx,
			`UPDATE scraped_items SET scraped_ts = NOW() WHERE id = $1`, latestID); err != nil {
			return outcome, fmt.Errorf("failed to touch scraped_ts for row %d: %w", latestID, err)
		}
		outcome.Status = domain.StatusUnchanged
	}

	if err := tx.Commit(ctx); err != nil {
		return outcome, fmt.Errorf("failed to commit reconcile for %s: %w", candidate.URL, err)
	}

	repoLogger.Debug("Reconcile committed", port.Fields{"status": outcome.Status})
	return outcome, nil
}

// dbExecutor покрывает и пул, и транзакцию.
type dbExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertListing(ctx context.Context, db dbExecutor, l domain.Listing) error {
	// geohash считается на вставке, если координаты есть
	var gh *string
	if l.Latitude != nil && l.Longitude != nil {
		encoded := geohash.Encode(*l.Latitude, *l.Longitude)
		gh = &encoded
	}

	createdTs := l.CreatedTs
	if createdTs.IsZero() {
		createdTs = time.Now()
	}
	scrapedTs := l.ScrapedTs
	if scrapedTs.IsZero() {
		scrapedTs = createdTs
	}

	_, err := db.Exec(ctx, `
		INSERT INTO scraped_items (
			url, title, price, price_per_sqr_meter, rooms, floor, square_meters, year,
			address, city, area,
			coastline_distance, gdansk_downtown_distance, gdynia_downtown_distance, sopot_downtown_distance,
			latitude, longitude, geohash,
			created_ts, scraped_ts, is_latest
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18,
			$19, $20, TRUE
		)`,
		l.URL, l.Title, l.Price, l.PricePerSqrMeter, l.Rooms, l.Floor, l.SquareMeters, l.Year,
		l.Address, l.City, l.Area,
		l.CoastlineDistance, l.GdanskDowntownDistance, l.GdyniaDowntownDistance, l.SopotDowntownDistance,
		l.Latitude, l.Longitude, gh,
		createdTs, scrapedTs,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// вторая "актуальная" строка для URL - инвариант хранилища ее не пускает
			return fmt.Errorf("insert %s: %w", l.URL, domain.ErrDuplicateLatest)
		}
		return fmt.Errorf("failed to insert listing %s: %w", l.URL, err)
	}
	return nil
}
