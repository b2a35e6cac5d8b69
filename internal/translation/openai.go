/**
 * OpenAI-backed translator.
 *
 * Prompts a chat model per target language, tuned for classical-text
 * sources. Transient transport failures are retried with a short backoff;
 * anything left after the retries is the caller's problem.
 */

package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 500
	defaultTemperature = 0.3
	defaultAttempts    = 3
	defaultRetryDelay  = 1 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI translator.
type OpenAIConfig struct {
	APIKey   string
	Model    string // defaults to gpt-4o-mini
	BaseURL  string // optional (tests)
	Attempts uint   // transport retry attempts, defaults to 3
}

// OpenAITranslator implements Translator using the OpenAI chat API.
type OpenAITranslator struct {
	client   openai.Client
	model    string
	attempts uint
}

// NewOpenAITranslator creates a translator around the OpenAI SDK.
func NewOpenAITranslator(cfg OpenAIConfig) *OpenAITranslator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = defaultAttempts
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAITranslator{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		attempts: cfg.Attempts,
	}
}

// Translate renders the text into the target language.
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	var result string

	err := retry.Do(
		func() error {
			resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(t.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage("You are an expert translator of classical and historical texts."),
					openai.UserMessage(promptFor(text, targetLanguage)),
				},
				MaxTokens:   openai.Int(defaultMaxTokens),
				Temperature: openai.Float(defaultTemperature),
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("empty completion response")
			}
			result = strings.TrimSpace(resp.Choices[0].Message.Content)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(t.attempts),
		retry.Delay(defaultRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}

	return result, nil
}

// promptFor builds the per-language instruction around the source text.
func promptFor(text, targetLanguage string) string {
	switch targetLanguage {
	case LangSimplifiedChinese:
		return fmt.Sprintf("Translate the following classical Chinese text into modern Simplified Chinese. Preserve the original meaning and keep the language fluent and natural:\n\n%s", text)
	case LangEnglish:
		return fmt.Sprintf("Please translate the following classical Chinese text into English, maintaining the original meaning:\n\n%s", text)
	default:
		return fmt.Sprintf("Translate the following text into %s:\n\n%s", targetLanguage, text)
	}
}
