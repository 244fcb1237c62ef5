package weberr

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/campus-catalog/internal/response"
)

// HandlerFunc is an http handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handler is the terminal error handler of the HTTP chain.
type Handler struct {
	log logrus.FieldLogger
}

// NewHandler builds a Handler logging through log.
func NewHandler(log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{log: log}
}

// Handle logs err and answers with the envelope for it. It is the last stop
// for an error and does not hand control to anything else.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	message := Message(err)

	fields := logrus.Fields{
		"status": status,
		"error":  fmt.Sprintf("%+v", err),
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			fields["req_id"] = rid
		}
	}
	if pe, ok := err.(*panicError); ok {
		fields["stack"] = string(pe.stack)
	}
	h.log.WithFields(fields).Error("request failed")

	if werr := response.Format(w, status, map[string]any{}, message); werr != nil {
		h.log.WithError(werr).Warn("write error response")
	}
}

// Wrap adapts fn to http.HandlerFunc. Returned errors and panics both end
// up in Handle.
func (h *Handler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Handle(w, r, &panicError{value: rec, stack: debug.Stack()})
			}
		}()

		if err := fn(w, r); err != nil {
			h.Handle(w, r, err)
		}
	}
}

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }
