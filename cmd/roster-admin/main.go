// Точка входа Roster Admin — веб-интерфейс администратора реестра сотрудников.
// Загружает конфигурацию, каталоги переводов, создаёт клиент REST API и
// реестр рабочих пространств браузеров, запускает мониторинг зависимостей
// (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/config"
	"github.com/teymur54/custom-login-project-full-tail/internal/debounce"
	"github.com/teymur54/custom-login-project-full-tail/internal/server"
	"github.com/teymur54/custom-login-project-full-tail/internal/service"
	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/handlers"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/i18n"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Roster Admin запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)

	if cfg.SessionSecret == "" {
		logger.Warn("RA_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}
	if os.Getenv("RA_DEPHEALTH_GROUP") == "" {
		logger.Warn("RA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Каталоги переводов
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент REST API
	api, err := apiclient.New(cfg.APIURL, cfg.APICACertPath, cfg.APITimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента REST API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Кодек cookie сессии
	codec, err := tokenstore.NewCodec(cfg.SessionSecret, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка инициализации сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Рабочие пространства браузеров
	factory := workspace.NewFactory(
		api,
		codec,
		debounce.NewSanitizer(cfg.SearchExtraChars),
		clockwork.NewRealClock(),
		workspace.SettingsFromConfig(cfg),
		logger,
	)
	registry := workspace.NewRegistry(factory, codec, cfg.WorkspaceLimit, cfg.WorkspaceIdleTimeout, logger)
	defer registry.Close()

	// 7. topologymetrics — мониторинг REST API.
	// Ошибка не фатальна: сервис работает без мониторинга зависимостей.
	ctx := context.Background()
	var deps handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"roster-admin",
		cfg.DephealthGroup,
		cfg.APIURL,
		cfg.APIHealthPath,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
		deps = dephealthSvc
	}

	// 8. HTTP-сервер
	srv := server.New(cfg, logger, registry, deps)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("Roster Admin остановлен")
}
