// Package response writes the uniform JSON envelope returned by every
// endpoint: {"status": <int>, "message": <string>, "data"?: <any>}.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// New builds an envelope, dropping data when IsEmpty reports it empty.
func New(status int, data any, message string) Envelope {
	env := Envelope{Status: status, Message: message}
	if !IsEmpty(data) {
		env.Data = data
	}
	return env
}

// Format writes status and the envelope for data/message to w. The status
// code is not validated.
func Format(w http.ResponseWriter, status int, data any, message string) error {
	payload, err := json.Marshal(New(status, data, message))
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// IsEmpty reports whether data carries nothing worth sending: nil, a nil
// pointer or interface, an empty slice/array/map, a struct without fields,
// or raw JSON that is null, {} or [].
func IsEmpty(data any) bool {
	if data == nil {
		return true
	}
	if raw, ok := data.(json.RawMessage); ok {
		trimmed := bytes.TrimSpace(raw)
		switch string(trimmed) {
		case "", "null", "{}", "[]":
			return true
		}
		return false
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Array:
		return v.Len() == 0
	case reflect.Struct:
		return v.NumField() == 0
	}
	return false
}
