package querycache

import (
	"fmt"
	"strings"
)

// keySep разделяет компоненты ключа во внутреннем представлении.
const keySep = "\x1f"

// Key — упорядоченный кортеж (ресурс, параметры...).
// Ключи равны, если равны все компоненты; любой изменённый компонент
// даёт другой ключ.
type Key []string

// NewKey строит ключ из имени ресурса и параметров (форматируются через fmt).
func NewKey(resource string, parts ...any) Key {
	k := make(Key, 0, len(parts)+1)
	k = append(k, resource)
	for _, p := range parts {
		k = append(k, fmt.Sprint(p))
	}
	return k
}

// Resource возвращает первый компонент ключа.
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix проверяет, что prefix совпадает с началом ключа покомпонентно.
// ("employees") — префикс ("employees", 10, 0, "lastName"),
// но не ("employeesData").
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Equal сравнивает ключи покомпонентно.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// String — человекочитаемое представление для логов.
func (k Key) String() string {
	return "(" + strings.Join(k, ", ") + ")"
}

// id — представление ключа для map.
func (k Key) id() string {
	return strings.Join(k, keySep)
}
