package storage

import (
	"context"
	"fmt"
)

// schema is the worker's relational layout. Unique constraints back the
// upsert semantics for corrections and translations; foreign keys cascade
// per the ownership model in models.go.
const schema = `
CREATE TABLE IF NOT EXISTS books (
	id          UUID PRIMARY KEY,
	title       TEXT NOT NULL,
	author      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pages (
	id             UUID PRIMARY KEY,
	book_id        UUID NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	page_number    INTEGER NOT NULL,
	image_path     TEXT NOT NULL,
	ocr_status     TEXT NOT NULL DEFAULT 'pending',
	ocr_confidence DOUBLE PRECISION,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (book_id, page_number)
);

CREATE TABLE IF NOT EXISTS ocr_tasks (
	id            UUID PRIMARY KEY,
	page_id       UUID NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS text_regions (
	id           UUID PRIMARY KEY,
	page_id      UUID NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	region_label TEXT NOT NULL,
	x            INTEGER NOT NULL,
	y            INTEGER NOT NULL,
	width        INTEGER NOT NULL CHECK (width > 0),
	height       INTEGER NOT NULL CHECK (height > 0),
	text         TEXT NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	order_index  INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (page_id, region_label),
	UNIQUE (page_id, order_index)
);

CREATE TABLE IF NOT EXISTS text_corrections (
	id             UUID PRIMARY KEY,
	region_id      UUID NOT NULL UNIQUE REFERENCES text_regions(id) ON DELETE CASCADE,
	corrected_text TEXT NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	corrector      TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS translations (
	id              UUID PRIMARY KEY,
	region_id       UUID NOT NULL UNIQUE REFERENCES text_regions(id) ON DELETE CASCADE,
	translated_text TEXT NOT NULL,
	language        TEXT NOT NULL,
	method          TEXT NOT NULL DEFAULT 'auto',
	translator      TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pages_book ON pages(book_id);
CREATE INDEX IF NOT EXISTS idx_tasks_page ON ocr_tasks(page_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status_completed ON ocr_tasks(status, completed_at);
CREATE INDEX IF NOT EXISTS idx_regions_page_order ON text_regions(page_id, order_index);
`

// EnsureSchema creates the worker's tables and indexes if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
