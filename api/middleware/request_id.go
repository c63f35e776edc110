package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	"github.com/angelmondragon/bloodbank-backend/pkg/types"
)

const (
	requestIDHeader    = types.RequestIDHeader
	maxRequestIDLength = 128
)

// RequestID propagates the caller's request id, or mints one, into the
// response header and the log context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" || len(reqID) > maxRequestIDLength {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
