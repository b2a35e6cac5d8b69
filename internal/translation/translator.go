/**
 * Translation capability boundary.
 *
 * The orchestration layer only depends on this interface; any concrete
 * engine (hosted model, local service, dictionary) can be substituted.
 */

package translation

import "context"

// Supported target language codes.
const (
	LangSimplifiedChinese = "zh-cn"
	LangEnglish           = "en"
	LangJapanese          = "ja"
)

// SystemTranslator is the identity attributed to machine translations
// produced by batch jobs.
const SystemTranslator = "system"

// Translator turns text into the target language. Implementations may fail;
// batch callers isolate failures per item, direct callers surface them.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}
