// Пакет config — загрузка и валидация конфигурации Roster Admin
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Roster Admin.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- REST API реестра сотрудников ---

	// Базовый URL REST API (например, http://10.14.33.78:8081/api)
	APIURL string
	// Таймаут HTTP-запросов к REST API
	APITimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с REST API (опционально)
	APICACertPath string

	// --- Сессия ---

	// Ключ шифрования cookie сессии (base64 32 байта или произвольная строка)
	SessionSecret string
	// Secure flag для cookie (true за HTTPS)
	SecureCookie bool

	// --- Поиск, кэш, уведомления ---

	// Период тишины перед применением поискового запроса
	SearchDebounce time.Duration
	// Дополнительные допустимые символы поиска (помимо \w)
	SearchExtraChars string
	// Окно подавления повторных уведомлений
	NotifyWindow time.Duration
	// Максимальное количество записей кэша запросов на одну сессию
	CacheSize int
	// Время жизни записи кэша (0 — без TTL)
	CacheTTL time.Duration
	// Размер страницы списка сотрудников по умолчанию
	DefaultPageSize int

	// --- Рабочие пространства (сессии браузеров) ---

	// Максимальное количество одновременно хранимых рабочих пространств
	WorkspaceLimit int
	// Время бездействия, после которого рабочее пространство вытесняется
	WorkspaceIdleTimeout time.Duration

	// --- Мониторинг зависимостей ---

	// Группа в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки REST API
	DephealthCheckInterval time.Duration
	// Путь health endpoint REST API (от корня хоста)
	APIHealthPath string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Допустимые размеры страницы (совпадают с вариантами выбора в UI).
var validPageSizes = map[int]bool{5: true, 10: true, 15: true, 20: true}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// RA_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("RA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("RA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("RA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// RA_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RA_LOG_LEVEL: %w", err)
	}

	// RA_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- REST API ---

	// RA_API_URL — базовый URL REST API
	cfg.APIURL = strings.TrimRight(getEnvDefault("RA_API_URL", "http://localhost:8081/api"), "/")
	parsed, err := url.Parse(cfg.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("RA_API_URL: некорректный URL %q", cfg.APIURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("RA_API_URL: недопустимая схема %q, допустимые: http, https", parsed.Scheme)
	}

	// RA_API_TIMEOUT — таймаут запросов к REST API (по умолчанию 15s)
	cfg.APITimeout, err = getEnvDuration("RA_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RA_API_TIMEOUT: %w", err)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("RA_API_TIMEOUT: значение должно быть положительным")
	}

	// RA_API_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.APICACertPath = getEnvDefault("RA_API_CA_CERT_PATH", "")

	// --- Сессия ---

	// RA_SESSION_SECRET — ключ шифрования сессий (опционально, иначе случайный)
	cfg.SessionSecret = getEnvDefault("RA_SESSION_SECRET", "")

	// RA_SECURE_COOKIE — Secure flag cookie (по умолчанию false)
	cfg.SecureCookie, err = getEnvBool("RA_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("RA_SECURE_COOKIE: %w", err)
	}

	// --- Поиск, кэш, уведомления ---

	// RA_SEARCH_DEBOUNCE — период тишины поиска (по умолчанию 500ms)
	cfg.SearchDebounce, err = getEnvDuration("RA_SEARCH_DEBOUNCE", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("RA_SEARCH_DEBOUNCE: %w", err)
	}
	if cfg.SearchDebounce <= 0 {
		return nil, fmt.Errorf("RA_SEARCH_DEBOUNCE: значение должно быть положительным")
	}

	// RA_SEARCH_EXTRA_CHARS — дополнительные буквы для поиска (по умолчанию ƏəХх)
	cfg.SearchExtraChars = getEnvDefault("RA_SEARCH_EXTRA_CHARS", "ƏəХх")

	// RA_NOTIFY_WINDOW — окно подавления повторных уведомлений (по умолчанию 1600ms)
	cfg.NotifyWindow, err = getEnvDuration("RA_NOTIFY_WINDOW", 1600*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("RA_NOTIFY_WINDOW: %w", err)
	}

	// RA_CACHE_SIZE — размер кэша запросов (по умолчанию 256)
	cfg.CacheSize, err = getEnvInt("RA_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("RA_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 || cfg.CacheSize > 100000 {
		return nil, fmt.Errorf("RA_CACHE_SIZE: значение %d вне допустимого диапазона 1-100000", cfg.CacheSize)
	}

	// RA_CACHE_TTL — время жизни записи кэша (по умолчанию 5m, 0 — без TTL)
	cfg.CacheTTL, err = getEnvDuration("RA_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RA_CACHE_TTL: %w", err)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("RA_CACHE_TTL: значение не может быть отрицательным")
	}

	// RA_DEFAULT_PAGE_SIZE — размер страницы по умолчанию (5, 10, 15, 20)
	cfg.DefaultPageSize, err = getEnvInt("RA_DEFAULT_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("RA_DEFAULT_PAGE_SIZE: %w", err)
	}
	if !validPageSizes[cfg.DefaultPageSize] {
		return nil, fmt.Errorf("RA_DEFAULT_PAGE_SIZE: недопустимое значение %d, допустимые: 5, 10, 15, 20", cfg.DefaultPageSize)
	}

	// --- Рабочие пространства ---

	// RA_WORKSPACE_LIMIT — максимум рабочих пространств (по умолчанию 1000)
	cfg.WorkspaceLimit, err = getEnvInt("RA_WORKSPACE_LIMIT", 1000)
	if err != nil {
		return nil, fmt.Errorf("RA_WORKSPACE_LIMIT: %w", err)
	}
	if cfg.WorkspaceLimit < 1 {
		return nil, fmt.Errorf("RA_WORKSPACE_LIMIT: значение %d должно быть не меньше 1", cfg.WorkspaceLimit)
	}

	// RA_WORKSPACE_IDLE_TIMEOUT — вытеснение неактивных пространств (по умолчанию 24h)
	cfg.WorkspaceIdleTimeout, err = getEnvDuration("RA_WORKSPACE_IDLE_TIMEOUT", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RA_WORKSPACE_IDLE_TIMEOUT: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// RA_DEPHEALTH_GROUP — группа в метриках (по умолчанию roster)
	cfg.DephealthGroup = getEnvDefault("RA_DEPHEALTH_GROUP", "roster")

	// RA_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("RA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// RA_API_HEALTH_PATH — health endpoint REST API (по умолчанию /actuator/health)
	cfg.APIHealthPath = getEnvDefault("RA_API_HEALTH_PATH", "/actuator/health")
	if !strings.HasPrefix(cfg.APIHealthPath, "/") {
		return nil, fmt.Errorf("RA_API_HEALTH_PATH: путь должен начинаться с /: %q", cfg.APIHealthPath)
	}

	// --- Graceful shutdown ---

	// RA_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("RA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 500ms, 30s, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
