package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"go.uber.org/zap"

	"quiz-launcher/internal/session"
)

const maxLoggedBodyBytes = 512

func NewRouter(controller Controller, sessions session.Repository, logger *zap.Logger) http.Handler {
	api := NewAPI(controller, sessions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/options", api.HandleOptions)
	mux.HandleFunc("/session", api.HandleSession)
	mux.HandleFunc("/session/config", api.HandleConfig)
	mux.HandleFunc("/session/reset", api.HandleReset)
	mux.HandleFunc("/session/rating", api.HandleRating)
	mux.HandleFunc("/session/retry", api.HandleRetry)
	mux.HandleFunc("/session/dismiss", api.HandleDismiss)
	mux.HandleFunc("/session/reconnect", api.HandleReconnect)
	mux.HandleFunc("/sessions", api.HandleSessions)
	mux.HandleFunc("/sessions/{session_id}", api.HandleStoredSession)

	return withRequestLogging(api.logger, mux)
}

// statusRecorder keeps the status code and the first maxLogBytes of the body
// so failed responses can be logged.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	logBody      bytes.Buffer
	maxLogBytes  int
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if room := r.maxLogBytes - r.logBody.Len(); room > 0 {
		if len(p) > room {
			r.logBody.Write(p[:room])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

func withRequestLogging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedBodyBytes,
		}

		next.ServeHTTP(recorder, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.statusCode),
			zap.Int("bytes", recorder.bytesWritten),
			zap.Duration("duration", time.Since(began)),
		}
		if recorder.statusCode >= http.StatusInternalServerError {
			fields = append(fields,
				zap.String("body", recorder.logBody.String()),
				zap.Bool("body_truncated", recorder.truncated),
			)
			logger.Warn("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	})
}
