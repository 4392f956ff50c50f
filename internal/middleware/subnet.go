package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// TrustedSubnet пропускает только запросы, чей X-Real-IP входит в подсеть cidr.
// Пустая или некорректная подсеть закрывает доступ полностью.
func TrustedSubnet(cidr string, logger *zap.Logger) func(http.Handler) http.Handler {
	var subnet *net.IPNet
	if cidr != "" {
		_, parsed, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Error("Некорректная доверенная подсеть", zap.String("cidr", cidr), zap.Error(err))
		} else {
			subnet = parsed
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subnet == nil {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ip := net.ParseIP(r.Header.Get("X-Real-IP"))
			if ip == nil || !subnet.Contains(ip) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
