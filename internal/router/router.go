package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/handlers"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/middleware"
)

// Options: зависимости маршрутизатора помимо обработчика.
type Options struct {
	Auth          *auth.Auth
	Metrics       http.Handler
	TrustedSubnet string
	RateLimit     string
	// TrustProxy: сервер стоит за обратным прокси, адрес клиента берётся из заголовков.
	TrustProxy bool
}

// NewRouter создаёт и настраивает маршрутизатор
func NewRouter(handler *handlers.Handler, logger *zap.Logger, opts Options) (*chi.Mux, error) {
	limit, err := middleware.RateLimit(opts.RateLimit, opts.TrustProxy, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoggingMiddleware(logger)) // Подключаем логирование
	r.Use(middleware.Session(opts.Auth))

	r.Get("/", handler.Index)
	r.With(limit).Post("/generate", handler.Generate)
	r.Get("/ping", handler.Ping)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.GzipMiddleware) // Gzip-сжатие только для JSON
		r.Get("/user/generations", handler.UserGenerations)
		r.With(middleware.TrustedSubnet(opts.TrustedSubnet, logger)).
			Get("/internal/stats", handler.Stats)
	})

	return r, nil
}
