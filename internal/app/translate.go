package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.aimuz.me/omni/cache"
	"go.aimuz.me/omni/internal/types"
	"go.aimuz.me/omni/llm"
)

// ErrTranslate wraps every translation failure.
var ErrTranslate = errors.New("failed to translate text")

// Translator encapsulates translation logic with caching.
// Zero value is not useful; create via NewTranslator.
type Translator struct {
	cache *cache.Cache
}

// NewTranslator creates a Translator. A nil cache disables caching.
func NewTranslator(c *cache.Cache) *Translator {
	return &Translator{cache: c}
}

// TranslateText translates text between two language display names.
// Blank input returns "" without calling the model.
func (t *Translator) TranslateText(ctx context.Context, completer llm.Completer, profile TranslateProfile, text, sourceName, targetName string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	result, err := t.Translate(ctx, completer, profile, types.TranslateRequest{
		Text:       text,
		SourceLang: sourceName,
		TargetLang: targetName,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslate, err)
	}
	return result.Text, nil
}

// Translate performs translation using the given completer, with cache lookup.
func (t *Translator) Translate(ctx context.Context, completer llm.Completer, profile TranslateProfile, req types.TranslateRequest) (types.TranslateResult, error) {
	key := t.cacheKey(profile, req)

	// Check cache first
	if result, ok := t.getCached(key); ok {
		return result, nil
	}

	msgs := buildTranslateMessages(profile.SystemPrompt, req)

	text, usage, err := completer.Complete(ctx, msgs)
	if err != nil {
		return types.TranslateResult{}, fmt.Errorf("translate: %w", err)
	}
	text = strings.TrimSpace(text)

	// Store in cache (best effort)
	t.setCache(key, text, usage)

	return types.TranslateResult{Text: text, Usage: usage}, nil
}

// TranslateProfile holds the minimal config needed for translation.
type TranslateProfile struct {
	Name         string
	Model        string
	SystemPrompt string
}

func buildTranslateMessages(systemPrompt string, req types.TranslateRequest) []llm.Message {
	content := fmt.Sprintf(
		"Translate the following text from %s to %s. Only provide the translated text without any explanations.\n\nText:\n%s",
		req.SourceLang, req.TargetLang, req.Text,
	)

	var msgs []llm.Message
	if systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})
	}
	return append(msgs, llm.Message{Role: "user", Content: content})
}

func (t *Translator) cacheKey(p TranslateProfile, req types.TranslateRequest) string {
	return cache.GenerateKey(p.Name, p.Model, p.SystemPrompt, req.SourceLang, req.TargetLang, req.Text)
}

func (t *Translator) getCached(key string) (types.TranslateResult, bool) {
	if t.cache == nil {
		return types.TranslateResult{}, false
	}

	entry, found := t.cache.Get(key)
	if !found {
		return types.TranslateResult{}, false
	}

	return types.TranslateResult{
		Text: entry.Text,
		Usage: types.Usage{
			PromptTokens:     entry.Usage.PromptTokens,
			CompletionTokens: entry.Usage.CompletionTokens,
			TotalTokens:      entry.Usage.TotalTokens,
			CacheHit:         true,
		},
	}, true
}

func (t *Translator) setCache(key, text string, usage types.Usage) {
	if t.cache == nil || text == "" {
		return
	}

	entry := &cache.Entry{
		Text: text,
		Usage: cache.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
		CreatedAt: time.Now(),
	}

	// Ignore error - caching is best effort
	_ = t.cache.Set(key, entry, cache.DefaultTTL)
}
