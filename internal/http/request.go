package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/campus-catalog/internal/validate"
	"github.com/Clark-Hu/campus-catalog/internal/weberr"
)

const maxRequestBody = 1 << 20 // 1 MiB

// nextCursorHeader carries the pagination token of list endpoints.
const nextCursorHeader = "X-Next-Cursor"

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

// decodeBody decodes and validates a JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := decodeJSONBody(w, r, dst); err != nil {
		return err
	}
	if err := validate.Check(dst); err != nil {
		return weberr.Wrap(err, http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

func decodeError(err error) error {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return weberr.Wrap(err, http.StatusUnprocessableEntity, "Malformed JSON payload")
	case errors.As(err, &typeError):
		return weberr.Wrapf(err, http.StatusUnprocessableEntity, "Invalid value for field %s", typeError.Field)
	case errors.As(err, &maxBytesError):
		return weberr.Wrap(err, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		return weberr.Wrap(err, http.StatusUnprocessableEntity, "Request body cannot be empty")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return weberr.Wrapf(err, http.StatusUnprocessableEntity, "Unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return weberr.Wrap(err, http.StatusBadRequest, "Unable to parse request body")
	}
}

// idParam returns the {id} URL parameter once it is a valid UUID.
func idParam(r *http.Request, resource string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := validate.CheckID(id); err != nil {
		return "", weberr.Wrap(err, http.StatusBadRequest, fmt.Sprintf("Invalid %s id", resource))
	}
	return id, nil
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AuthToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}

func (s *Server) requireBearer(r *http.Request) error {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		return weberr.Unauthorized("Missing or invalid authentication information")
	}
	return nil
}

func setNextCursor(w http.ResponseWriter, cursor *string) {
	if cursor != nil {
		w.Header().Set(nextCursorHeader, *cursor)
	}
}
