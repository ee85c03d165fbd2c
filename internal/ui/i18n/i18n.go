// Пакет i18n — интернационализация Roster Admin UI.
// Функции T(ctx, key) и Tf(ctx, key, args...) возвращают переведённые
// строки для языка из контекста HTTP-запроса.
// Языки: Azərbaycan (az, по умолчанию), English (en), Русский (ru).
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию.
const DefaultLang = "az"

// Languages — поддерживаемые языки в порядке показа.
var Languages = []string{"az", "en", "ru"}

// matcher — языковой matcher для Accept-Language. Первый тег — язык по умолчанию.
var matcher = language.NewMatcher([]language.Tag{
	language.Azerbaijani,
	language.English,
	language.Russian,
})

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — переводы для всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает плоский JSON-каталог {"key": "translation"} для языка.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate возвращает перевод. Нет перевода — строка языка по умолчанию,
// нет и её — сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[DefaultLang][key]; ok {
		return msg
	}
	return key
}

// Translatef — Translate с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// Keys возвращает ключи каталога языка (для проверки полноты переводов).
func (b *Bundle) Keys(lang string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.catalogs[lang]))
	for k := range b.catalogs[lang] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// --- Глобальный Bundle ---

var (
	globalBundle *Bundle
	globalOnce   sync.Once
)

// Init инициализирует глобальный Bundle. Вызывается один раз при старте.
func Init(logger *slog.Logger) *Bundle {
	globalOnce.Do(func() {
		globalBundle = NewBundle(logger)
	})
	return globalBundle
}

// GetBundle возвращает глобальный Bundle (nil, если не инициализирован).
func GetBundle() *Bundle {
	return globalBundle
}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T возвращает перевод по ключу для языка из контекста.
func T(ctx context.Context, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(LangFromContext(ctx), key)
}

// Tf — T с подстановкой аргументов.
func Tf(ctx context.Context, key string, args ...any) string {
	return Translatef(LangFromContext(ctx), key, args...)
}

// Translate — перевод для явно указанного языка через глобальный Bundle.
func Translate(lang, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(lang, key)
}

// Translatef — Translate с подстановкой аргументов.
func Translatef(lang, key string, args ...any) string {
	if globalBundle == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return globalBundle.Translatef(lang, key, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят
// из JSON-каталогов и не проверяются go vet.
var formatFunc = fmt.Sprintf

// Supported проверяет, поддерживается ли язык.
func Supported(lang string) bool {
	return slices.Contains(Languages, lang)
}

// MatchLanguage выбирает язык по заголовку Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	if idx < 0 || idx >= len(Languages) {
		return DefaultLang
	}
	return Languages[idx]
}
