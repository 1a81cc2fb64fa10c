package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/labcms/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// accessLog logs one line per request at INFO.
func accessLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"remote_ip", clientIP(r),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
