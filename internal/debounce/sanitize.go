// Пакет debounce — поле поиска с очисткой ввода и задержкой применения.
// Значение применяется только после периода тишины: каждое новое
// изменение перезапускает таймер.
package debounce

import "strings"

// DefaultExtraChars — буквы азербайджанского алфавита, допустимые в поиске
// помимо ASCII-букв, цифр и подчёркивания.
const DefaultExtraChars = "ƏəХх"

// Sanitizer удаляет из строки всё, кроме разрешённых символов.
type Sanitizer struct {
	extra map[rune]struct{}
}

// NewSanitizer создаёт фильтр с дополнительными разрешёнными символами.
func NewSanitizer(extraChars string) *Sanitizer {
	extra := make(map[rune]struct{}, len(extraChars))
	for _, r := range extraChars {
		extra[r] = struct{}{}
	}
	return &Sanitizer{extra: extra}
}

// Allowed проверяет, разрешён ли символ.
func (s *Sanitizer) Allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	}
	_, ok := s.extra[r]
	return ok
}

// Sanitize возвращает строку только из разрешённых символов.
func (s *Sanitizer) Sanitize(raw string) string {
	return strings.Map(func(r rune) rune {
		if s.Allowed(r) {
			return r
		}
		return -1
	}, raw)
}
