package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// raterHeader identifies the user submitting a rating.
const raterHeader = "X-User-Id"

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
			})
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				entry = entry.WithField("req_id", rid)
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry.WithFields(logrus.Fields{
				"statuscode": ww.Status(),
				"bytes":      ww.BytesWritten(),
				"since":      time.Since(start).String(),
			}).Info("completed")
		})
	}
}

// raterKey buckets rating submissions per user, falling back to the client
// address for anonymous calls (which the handler rejects anyway).
func raterKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(raterHeader)); id != "" {
		return "user:" + id
	}
	return "addr:" + r.RemoteAddr
}
