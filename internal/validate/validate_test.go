package validate

import (
	"errors"
	"strings"
	"testing"
)

type ratingPayload struct {
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5,half_step"`
}

type coursePayload struct {
	Title string  `json:"course_title" validate:"required"`
	Price float64 `json:"course_price" validate:"gte=0"`
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		val     any
		wantErr string
	}{
		{"valid rating", ratingPayload{Rating: 4.5}, ""},
		{"rating too high", ratingPayload{Rating: 5.5}, "rating must be 5 or less"},
		{"rating not half step", ratingPayload{Rating: 3.7}, "rating must be a multiple of 0.5"},
		{"missing rating", ratingPayload{}, "rating is a required field"},
		{"missing title", coursePayload{Price: 10}, "course_title is a required field"},
		{"negative price", coursePayload{Title: "Go", Price: -1}, "course_price must be 0 or greater"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.val)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Check() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Check() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckID(t *testing.T) {
	if err := CheckID("8a6e0804-2bd0-4672-b79d-d97027f9071a"); err != nil {
		t.Fatalf("valid uuid rejected: %v", err)
	}
	for _, id := range []string{"", "42", "not-a-uuid"} {
		if err := CheckID(id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("CheckID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
}
