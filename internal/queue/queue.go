/**
 * Queue names, task types and payloads.
 *
 * Three logical queues: per-page OCR jobs, whole-book translation batches,
 * and periodic maintenance. Jobs are identified by the entity id they
 * operate on, plus a target language for translation.
 */

package queue

// Queue names. Server priorities favor OCR over translation over
// maintenance.
const (
	QueueOCR         = "ocr"
	QueueTranslation = "translation"
	QueueMaintenance = "maintenance"
)

// Task type names routed by the consumer mux.
const (
	TypeProcessPage   = "ocr:process_page"
	TypeTranslateBook = "translation:translate_book"
	TypeSweepTasks    = "maintenance:sweep_tasks"
)

// ProcessPagePayload identifies one OCR task to run.
type ProcessPagePayload struct {
	TaskID string `json:"task_id"`
}

// TranslateBookPayload identifies one whole-book translation batch.
type TranslateBookPayload struct {
	BookID         string `json:"book_id"`
	TargetLanguage string `json:"target_language"`
}
