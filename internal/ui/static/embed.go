// Пакет static — встроенные статические ресурсы Roster Admin UI (CSS, JS).
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/*.css js/*.js
var content embed.FS

// FileSystem возвращает http.FileSystem для /static/*.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS встроенных файлов.
func FS() fs.FS {
	return content
}
