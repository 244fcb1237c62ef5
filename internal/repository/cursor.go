package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor allows stable pagination by created_at/id.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func encodeCursor(c Cursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token produced by a List call.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	if cursor.ID == "" || cursor.CreatedAt.IsZero() {
		return nil, fmt.Errorf("invalid cursor payload: missing position")
	}
	return &cursor, nil
}

func nextCursor(count, limit int, createdAt time.Time, id string) (*string, error) {
	if count < limit {
		return nil, nil
	}
	token, err := encodeCursor(Cursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return nil, err
	}
	return &token, nil
}
