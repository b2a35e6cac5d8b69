/**
 * Persisted record types.
 *
 * Ownership: a Book owns its Pages, a Page owns its TextRegions, a
 * TextRegion optionally owns one TextCorrection and one Translation
 * (all cascade on delete). OCRTasks reference a Page but do not own it;
 * they are ephemeral audit records, regions are durable content.
 */

package storage

import "time"

// Status is the lifecycle state shared by pages and OCR tasks.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TranslationMethod tags how a translation was produced.
type TranslationMethod string

const (
	MethodManual TranslationMethod = "manual"
	MethodAuto   TranslationMethod = "auto"
	MethodHybrid TranslationMethod = "hybrid"
)

// Book is a scanned volume under processing.
type Book struct {
	ID        string
	Title     string
	Author    string
	CreatedAt time.Time
}

// Page is a single scanned page of a book. OCRStatus mirrors the state of
// the page's most recent OCR task and is mutated only by the coordinator.
type Page struct {
	ID            string
	BookID        string
	PageNumber    int
	ImagePath     string
	OCRStatus     Status
	OCRConfidence *float64
	CreatedAt     time.Time
}

// OCRTask is one processing attempt of a page. Re-processing a page creates
// a new task. ErrorMessage is non-empty exactly when Status is failed.
type OCRTask struct {
	ID           string
	PageID       string
	Status       Status
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// TextRegion is an OCR-detected text block with geometry, in final reading
// order. Immutable once created; corrections and translations are layered
// on top, never written through.
//
// CorrectedText and HasTranslation are overlay fields filled by queries that
// join the correction and translation tables.
type TextRegion struct {
	ID             string
	PageID         string
	Label          string
	X              int
	Y              int
	Width          int
	Height         int
	Text           string
	Confidence     float64
	OrderIndex     int
	CreatedAt      time.Time
	CorrectedText  *string
	HasTranslation bool
}

// EffectiveText returns the text downstream consumers should operate on:
// the human correction when one exists, the raw recognized text otherwise.
func (r *TextRegion) EffectiveText() string {
	if r.CorrectedText != nil {
		return *r.CorrectedText
	}
	return r.Text
}

// TextCorrection is a human-edited replacement for a region's raw text.
// At most one per region.
type TextCorrection struct {
	ID            string
	RegionID      string
	CorrectedText string
	Notes         string
	Corrector     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Translation is the translated text for one region. At most one per region;
// re-translation overwrites in place.
type Translation struct {
	ID             string
	RegionID       string
	TranslatedText string
	Language       string
	Method         TranslationMethod
	Translator     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
