package postgres

import (
	"context"
	"fmt"
)

// DDL таблицы истории объявлений. Частичный уникальный индекс по (url) WHERE
// is_latest обеспечивает инвариант "не более одной актуальной версии на URL"
// на уровне базы, а не только дисциплиной retire-перед-insert.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS scraped_items (
    id                       BIGSERIAL PRIMARY KEY,
    url                      TEXT NOT NULL,
    title                    TEXT,
    price                    DOUBLE PRECISION,
    price_per_sqr_meter      DOUBLE PRECISION,
    rooms                    INT,
    floor                    INT,
    square_meters            DOUBLE PRECISION,
    year                     INT,
    address                  TEXT,
    city                     TEXT,
    area                     TEXT,
    coastline_distance       DOUBLE PRECISION,
    gdansk_downtown_distance DOUBLE PRECISION,
    gdynia_downtown_distance DOUBLE PRECISION,
    sopot_downtown_distance  DOUBLE PRECISION,
    latitude                 DOUBLE PRECISION,
    longitude                DOUBLE PRECISION,
    geohash                  TEXT,
    created_ts               TIMESTAMPTZ NOT NULL,
    scraped_ts               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_latest                BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE UNIQUE INDEX IF NOT EXISTS scraped_items_url_latest
    ON scraped_items (url) WHERE is_latest;

CREATE INDEX IF NOT EXISTS scraped_items_city_idx ON scraped_items (city) WHERE is_latest;
`

// EnsureSchema создает таблицу и индексы, если их еще нет.
func (a *ListingStoreAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure scraped_items schema: %w", err)
	}
	return nil
}
