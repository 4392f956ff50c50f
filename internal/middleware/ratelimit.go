package middleware

import (
	"fmt"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimit ограничивает число запросов с одного IP.
// rate задаётся в формате limiter: "<n>-<S|M|H|D>", например "60-M".
// Пустая строка отключает ограничение.
// Адрес клиента берётся из X-Forwarded-For/X-Real-IP только при trustProxy,
// иначе из RemoteAddr соединения.
func RateLimit(rate string, trustProxy bool, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), parsed, limiter.WithTrustForwardHeader(trustProxy))

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("Rate limit reached", zap.String("remote", r.RemoteAddr))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("Rate limiter failed", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}),
	)
	return mw.Handler, nil
}
