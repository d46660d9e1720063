package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestObserver struct {
	http.ResponseWriter

	bytes int
	code  int
}

func (o *requestObserver) WriteHeader(code int) {
	o.ResponseWriter.WriteHeader(code)
	if o.code == 0 {
		o.code = code
	}
}

func (o *requestObserver) Write(b []byte) (int, error) {
	if o.code == 0 {
		o.code = http.StatusOK
	}
	n, err := o.ResponseWriter.Write(b)
	o.bytes += n
	return n, err
}

type loggerKey struct{}

// requestLogger returns the logger attached to ctx by logRequests.
func requestLogger(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if l, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger); ok {
		return l
	}
	return fallback
}

// logRequests tags each request with a correlation id (taken from the
// request header if present, else a new UUID) and logs its completion.
func logRequests(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		} else if len(id) > 40 {
			id = id[:40]
		}
		w.Header().Set(RequestIDHeader, id)

		reqLog := log.WithField("req_id", id)
		ctx := context.WithValue(r.Context(), loggerKey{}, logrus.FieldLogger(reqLog))

		o := &requestObserver{ResponseWriter: w}
		next.ServeHTTP(o, r.WithContext(ctx))

		if o.code == 0 {
			o.code = http.StatusOK
		}
		entry := reqLog.WithFields(logrus.Fields{
			"method":   r.Method,
			"uri":      r.URL.RequestURI(),
			"status":   o.code,
			"bytes":    o.bytes,
			"duration": time.Since(begin).String(),
			"remote":   r.RemoteAddr,
		})
		if o.code >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request completed")
		}
	})
}
