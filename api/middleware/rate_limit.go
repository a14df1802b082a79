package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jkiprotich/mifugo-market-backend/api/responses"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
)

// FixedWindowLimiter counts requests in fixed windows keyed by scope.
type FixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit caps requests per user inside a fixed window keyed by scope name.
// A limiter outage fails open so checkout stays available.
func RateLimit(limiter FixedWindowLimiter, scope string, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("%s:%s", scope, UserIDFromContext(r.Context()))
			allowed, _, err := limiter.FixedWindowAllow(r.Context(), key, limit, window)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "rate limiter unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
