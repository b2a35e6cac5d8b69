/**
 * PostgreSQL persistence for the folio worker.
 *
 * Holds books, pages, OCR tasks, text regions and their correction and
 * translation overlays. Task/page state transitions that must stay in step
 * run in one transaction. Bulk region inserts are independent statements:
 * a partial write after a mid-pipeline failure is accepted, not rolled
 * back.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	apperrors "github.com/foliolab/folio-worker/internal/errors"
	"github.com/foliolab/folio-worker/internal/processor"
)

// PostgresStore handles database operations
type PostgresStore struct {
	db *sql.DB
}

// sanitizeConfidence clamps a confidence into [0,1] and rounds it to 4
// decimal places so float noise like 0.9632000000000001 never reaches the
// database.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// GetTaskWithPage loads a task together with its owning page. Returns a
// TASK_NOT_FOUND error when the task id is unknown; no state is touched in
// that case.
func (p *PostgresStore) GetTaskWithPage(ctx context.Context, taskID string) (*OCRTask, *Page, error) {
	query := `
		SELECT
			t.id, t.page_id, t.status, t.error_message, t.started_at, t.completed_at, t.created_at,
			pg.id, pg.book_id, pg.page_number, pg.image_path, pg.ocr_status, pg.ocr_confidence, pg.created_at
		FROM ocr_tasks t
		JOIN pages pg ON pg.id = t.page_id
		WHERE t.id = $1
	`

	var (
		task       OCRTask
		page       Page
		taskStatus string
		pageStatus string
		startedAt  sql.NullTime
		completed  sql.NullTime
		confidence sql.NullFloat64
	)

	err := p.db.QueryRowContext(ctx, query, taskID).Scan(
		&task.ID, &task.PageID, &taskStatus, &task.ErrorMessage, &startedAt, &completed, &task.CreatedAt,
		&page.ID, &page.BookID, &page.PageNumber, &page.ImagePath, &pageStatus, &confidence, &page.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, apperrors.NewTaskNotFoundError(taskID)
	}
	if err != nil {
		return nil, nil, apperrors.NewStorageError("get task", err)
	}

	task.Status = Status(taskStatus)
	page.OCRStatus = Status(pageStatus)
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completed.Valid {
		task.CompletedAt = &completed.Time
	}
	if confidence.Valid {
		page.OCRConfidence = &confidence.Float64
	}

	return &task, &page, nil
}

// CreateTask records a new pending processing attempt for a page. Each
// re-processing of a page gets its own task.
func (p *PostgresStore) CreateTask(ctx context.Context, pageID string) (*OCRTask, error) {
	task := &OCRTask{
		ID:     uuid.New().String(),
		PageID: pageID,
		Status: StatusPending,
	}

	query := `
		INSERT INTO ocr_tasks (id, page_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := p.db.QueryRowContext(ctx, query, task.ID, task.PageID, task.Status).Scan(&task.CreatedAt); err != nil {
		return nil, apperrors.NewStorageError("create task", err)
	}
	return task, nil
}

// MarkTaskProcessing transitions task and page to processing and stamps the
// start time, in one transaction so the page always mirrors its latest task.
func (p *PostgresStore) MarkTaskProcessing(ctx context.Context, taskID, pageID string, startedAt time.Time) error {
	return p.transitionTask(ctx, "mark processing",
		`UPDATE ocr_tasks SET status = 'processing', started_at = $2 WHERE id = $1`,
		[]interface{}{taskID, startedAt},
		`UPDATE pages SET ocr_status = 'processing' WHERE id = $1`,
		[]interface{}{pageID},
	)
}

// MarkTaskCompleted transitions task and page to completed, stamps the
// completion time and records the page's aggregate confidence.
func (p *PostgresStore) MarkTaskCompleted(ctx context.Context, taskID, pageID string, confidence float64, completedAt time.Time) error {
	return p.transitionTask(ctx, "mark completed",
		`UPDATE ocr_tasks SET status = 'completed', completed_at = $2 WHERE id = $1`,
		[]interface{}{taskID, completedAt},
		`UPDATE pages SET ocr_status = 'completed', ocr_confidence = $2 WHERE id = $1`,
		[]interface{}{pageID, sanitizeConfidence(confidence)},
	)
}

// MarkTaskFailed transitions task and page to failed and captures the error
// text verbatim for anyone inspecting the page later.
func (p *PostgresStore) MarkTaskFailed(ctx context.Context, taskID, pageID, message string, completedAt time.Time) error {
	return p.transitionTask(ctx, "mark failed",
		`UPDATE ocr_tasks SET status = 'failed', error_message = $2, completed_at = $3 WHERE id = $1`,
		[]interface{}{taskID, message, completedAt},
		`UPDATE pages SET ocr_status = 'failed' WHERE id = $1`,
		[]interface{}{pageID},
	)
}

func (p *PostgresStore) transitionTask(ctx context.Context, op, taskQuery string, taskArgs []interface{}, pageQuery string, pageArgs []interface{}) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, taskQuery, taskArgs...); err != nil {
		return apperrors.NewStorageError(op, err)
	}
	if _, err := tx.ExecContext(ctx, pageQuery, pageArgs...); err != nil {
		return apperrors.NewStorageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError(op, err)
	}
	return nil
}

// CreateRegions persists recognized regions for a page. Each insert is
// independent; a failure part-way leaves the earlier rows in place and
// reports how many were written.
func (p *PostgresStore) CreateRegions(ctx context.Context, pageID string, regions []processor.Region) (int, error) {
	query := `
		INSERT INTO text_regions (id, page_id, region_label, x, y, width, height, text, confidence, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	written := 0
	for _, r := range regions {
		_, err := p.db.ExecContext(ctx, query,
			uuid.New().String(), pageID, r.Label,
			r.X, r.Y, r.Width, r.Height,
			r.Text, sanitizeConfidence(r.Confidence), r.OrderIndex,
		)
		if err != nil {
			return written, apperrors.NewStorageError("create region", err)
		}
		written++
	}
	return written, nil
}

// GetBook loads a book header.
func (p *PostgresStore) GetBook(ctx context.Context, bookID string) (*Book, error) {
	var book Book
	err := p.db.QueryRowContext(ctx,
		`SELECT id, title, author, created_at FROM books WHERE id = $1`, bookID,
	).Scan(&book.ID, &book.Title, &book.Author, &book.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewStorageError("get book", fmt.Errorf("book not found: %s", bookID))
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get book", err)
	}
	return &book, nil
}

// ListBookPages returns a book's pages in page-number order. The book must
// exist; an unknown book id is an error, an existing book with no pages is
// an empty slice.
func (p *PostgresStore) ListBookPages(ctx context.Context, bookID string) ([]Page, error) {
	if _, err := p.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, book_id, page_number, image_path, ocr_status, ocr_confidence, created_at
		FROM pages
		WHERE book_id = $1
		ORDER BY page_number
	`
	rows, err := p.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, apperrors.NewStorageError("list pages", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var (
			page       Page
			status     string
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&page.ID, &page.BookID, &page.PageNumber, &page.ImagePath, &status, &confidence, &page.CreatedAt); err != nil {
			return nil, apperrors.NewStorageError("list pages", err)
		}
		page.OCRStatus = Status(status)
		if confidence.Valid {
			page.OCRConfidence = &confidence.Float64
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list pages", err)
	}
	return pages, nil
}

// ListPageRegions returns a page's regions in reading order, with the
// correction overlay and translation-existence flag joined in.
func (p *PostgresStore) ListPageRegions(ctx context.Context, pageID string) ([]TextRegion, error) {
	query := `
		SELECT
			r.id, r.page_id, r.region_label, r.x, r.y, r.width, r.height,
			r.text, r.confidence, r.order_index, r.created_at,
			c.corrected_text,
			(tr.id IS NOT NULL) AS has_translation
		FROM text_regions r
		LEFT JOIN text_corrections c ON c.region_id = r.id
		LEFT JOIN translations tr ON tr.region_id = r.id
		WHERE r.page_id = $1
		ORDER BY r.order_index
	`
	rows, err := p.db.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, apperrors.NewStorageError("list regions", err)
	}
	defer rows.Close()

	var regions []TextRegion
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("list regions", err)
		}
		regions = append(regions, *region)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list regions", err)
	}
	return regions, nil
}

// GetRegion loads one region with its correction overlay and translation
// flag.
func (p *PostgresStore) GetRegion(ctx context.Context, regionID string) (*TextRegion, error) {
	query := `
		SELECT
			r.id, r.page_id, r.region_label, r.x, r.y, r.width, r.height,
			r.text, r.confidence, r.order_index, r.created_at,
			c.corrected_text,
			(tr.id IS NOT NULL) AS has_translation
		FROM text_regions r
		LEFT JOIN text_corrections c ON c.region_id = r.id
		LEFT JOIN translations tr ON tr.region_id = r.id
		WHERE r.id = $1
	`
	row := p.db.QueryRowContext(ctx, query, regionID)
	region, err := scanRegion(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewStorageError("get region", fmt.Errorf("region not found: %s", regionID))
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get region", err)
	}
	return region, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegion(row rowScanner) (*TextRegion, error) {
	var (
		region    TextRegion
		corrected sql.NullString
	)
	err := row.Scan(
		&region.ID, &region.PageID, &region.Label,
		&region.X, &region.Y, &region.Width, &region.Height,
		&region.Text, &region.Confidence, &region.OrderIndex, &region.CreatedAt,
		&corrected, &region.HasTranslation,
	)
	if err != nil {
		return nil, err
	}
	if corrected.Valid {
		region.CorrectedText = &corrected.String
	}
	return &region, nil
}

// UpsertTranslation creates or replaces the translation for a region.
// Keyed by the owning region: replacing overwrites fields in place.
func (p *PostgresStore) UpsertTranslation(ctx context.Context, t *Translation) error {
	query := `
		INSERT INTO translations (id, region_id, translated_text, language, method, translator)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (region_id) DO UPDATE SET
			translated_text = EXCLUDED.translated_text,
			language        = EXCLUDED.language,
			method          = EXCLUDED.method,
			translator      = EXCLUDED.translator,
			updated_at      = NOW()
	`
	_, err := p.db.ExecContext(ctx, query,
		uuid.New().String(), t.RegionID, t.TranslatedText, t.Language, t.Method, t.Translator)
	if err != nil {
		return apperrors.NewStorageError("upsert translation", err)
	}
	return nil
}

// UpsertCorrection creates or replaces the correction overlay for a region.
func (p *PostgresStore) UpsertCorrection(ctx context.Context, c *TextCorrection) error {
	query := `
		INSERT INTO text_corrections (id, region_id, corrected_text, notes, corrector)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (region_id) DO UPDATE SET
			corrected_text = EXCLUDED.corrected_text,
			notes          = EXCLUDED.notes,
			corrector      = EXCLUDED.corrector,
			updated_at     = NOW()
	`
	_, err := p.db.ExecContext(ctx, query,
		uuid.New().String(), c.RegionID, c.CorrectedText, c.Notes, c.Corrector)
	if err != nil {
		return apperrors.NewStorageError("upsert correction", err)
	}
	return nil
}

// DeleteExpiredTasks removes terminal-state tasks whose completion is older
// than the cutoff. Pending and processing tasks are never touched, and this
// path never reaches pages or regions.
func (p *PostgresStore) DeleteExpiredTasks(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM ocr_tasks
		WHERE status IN ('completed', 'failed')
		  AND completed_at IS NOT NULL
		  AND completed_at < $1
	`
	result, err := p.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.NewStorageError("delete expired tasks", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStorageError("delete expired tasks", err)
	}
	return deleted, nil
}

// Ping checks database connectivity
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
