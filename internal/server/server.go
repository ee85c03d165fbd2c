// Пакет server — HTTP-сервер Roster Admin с graceful shutdown.
// Без TLS — TLS termination выполняет reverse proxy перед сервисом.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teymur54/custom-login-project-full-tail/internal/config"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/handlers"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/i18n"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/middleware"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/static"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

// Server — HTTP-сервер Roster Admin.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
// deps — состояние зависимостей для readiness (может быть nil).
func New(cfg *config.Config, logger *slog.Logger, registry *workspace.Registry, deps handlers.DependencyHealth) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, registry, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты сервиса.
// Health, метрики и статика обслуживаются без рабочего пространства:
// они не создают сессий и не пишут cookie.
func NewRouter(logger *slog.Logger, registry *workspace.Registry, deps handlers.DependencyHealth) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	health := handlers.NewHealthHandler(deps, registry)
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	authH := handlers.NewAuthHandler(logger)
	employeesH := handlers.NewEmployeesHandler(logger)
	formsH := handlers.NewFormsHandler(logger)
	pagesH := handlers.NewPagesHandler(logger)

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(middleware.Workspace(registry, logger))

		r.Get("/login", authH.HandleLoginPage)
		r.Post("/login", authH.HandleLogin)
		r.Post("/logout", authH.HandleLogout)
		r.Post("/set-language", handlers.HandleSetLanguage)
		r.NotFound(pagesH.HandleNotFound)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", employeesH.HandleList)
			r.Get("/print", employeesH.HandlePrint)
			r.Get("/partials/employee-table", employeesH.HandleTable)
			r.Post("/list/page-size", employeesH.HandlePageSize)
			r.Post("/list/sort", employeesH.HandleSort)
			r.Post("/list/next", employeesH.HandleNext)
			r.Post("/list/prev", employeesH.HandlePrev)

			r.Get("/employees/lookup", employeesH.HandleLookup)
			r.Get("/employees/new", formsH.HandleNew)
			r.Post("/employees", formsH.HandleCreate)
			r.Get("/employees/{id}/edit", formsH.HandleEdit)
			r.Post("/employees/{id}", formsH.HandleUpdate)
			r.Post("/employees/{id}/delete", formsH.HandleDelete)

			r.Get("/unauthorized", pagesH.HandleUnauthorized)
		})
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
