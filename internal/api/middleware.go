package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/metrics"
	"github.com/JakeFAU/wp-inspector/internal/policy/ratelimit"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,OPTIONS,POST")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rateLimitDetails struct {
	Limit          int `json:"limit"`
	ResetInMinutes int `json:"resetInMinutes"`
}

type rateLimitBody struct {
	Error             string           `json:"error"`
	RateLimitExceeded bool             `json:"rateLimitExceeded"`
	Details           rateLimitDetails `json:"details"`
}

func guardMiddleware(guard Guard, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := guard.Validate(r)
			if v.RateLimit.Limit > 0 {
				setRateLimitHeaders(w, v.RateLimit)
			}
			if v.Valid {
				next.ServeHTTP(w, r)
				return
			}
			logger.Info("request rejected",
				zap.Int("status", v.Status),
				zap.String("client_ip", v.ClientIP),
				zap.String("source", v.Source),
				zap.String("request_id", RequestID(r.Context())),
			)
			if v.Status == http.StatusTooManyRequests {
				metrics.ObserveRateLimitRejection()
				writeJSON(w, http.StatusTooManyRequests, rateLimitBody{
					Error:             v.Error,
					RateLimitExceeded: true,
					Details: rateLimitDetails{
						Limit:          v.RateLimit.Limit,
						ResetInMinutes: v.RateLimit.ResetInMinutes,
					},
				})
				return
			}
			writeError(w, v.Status, v.Error)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, st ratelimit.Status) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(st.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(st.Remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(st.ResetInSeconds))
}
