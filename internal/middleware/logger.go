package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const loggedUserKey contextKey = "loggedUser"

// noteUser lets RequireAuth report the caller back to the request logger, which
// sits outside the authenticated route group.
func noteUser(ctx context.Context, userID int) {
	if slot, ok := ctx.Value(loggedUserKey).(*int); ok {
		*slot = userID
	}
}

// ZapRequestLogger writes one entry per request. Server errors log at error
// level, client errors at warn.
func ZapRequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			var userID int
			r = r.WithContext(context.WithValue(r.Context(), loggedUserKey, &userID))

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)),
					zap.String("remote_ip", r.RemoteAddr),
				}
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					fields = append(fields, zap.String("route", rctx.RoutePattern()))
				}
				if userID != 0 {
					fields = append(fields, zap.Int("user_id", userID))
				}
				logger.Log(levelFor(status), "request completed", fields...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
