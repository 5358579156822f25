package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/utils"
)

// AllowOnlyCIDRS allows only the listed IPs, CIDRs or the "loopback" keyword.
// An empty list does not filter (passthrough). trustProxy resolves the
// client from X-Forwarded-For when sflens runs behind a reverse proxy.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("AllowOnlyCIDRS: empty matcher, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debug("client address rejected",
					logger.String("remote_ip", ip),
					logger.String("remote_addr", r.RemoteAddr),
					logger.Bool("trust_proxy", trustProxy))
				reject(w, http.StatusForbidden, "cidr")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// reject counts the refusal and answers with a JSON error body.
func reject(w http.ResponseWriter, status int, reason string) {
	httpRejectedTotal.WithLabelValues(reason).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + http.StatusText(status) + `"}` + "\n"))
}
