// Package domain holds the transition contract shared by the device,
// analytics and settings state domains.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownAction indicates a transition type no domain handles.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidPayload indicates a payload that does not match the transition shape.
	ErrInvalidPayload = errors.New("invalid action payload")
)

// Action is a named transition request.
type Action interface {
	Type() string
}

// Env carries the values a reducer may not compute itself.
type Env struct {
	Now   time.Time
	NewID func() string
}

// Decoder builds a typed Action from a raw JSON payload.
type Decoder func(payload json.RawMessage) (Action, error)

// Descriptor describes one transition for discovery endpoints.
type Descriptor struct {
	Type        string  `json:"type"`
	Domain      string  `json:"domain"`
	Description string  `json:"description"`
	Decode      Decoder `json:"-"`
}

// DecodeStrict unmarshals payload into dst rejecting unknown fields and
// mismatched types. An empty payload leaves dst untouched.
func DecodeStrict(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// DecodeRequired is DecodeStrict for payloads that must be present.
func DecodeRequired(payload json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	return DecodeStrict(trimmed, dst)
}

// OptionalMessage decodes a string-or-null payload used by setError.
func OptionalMessage(payload json.RawMessage) (*string, error) {
	var msg *string
	if err := DecodeStrict(payload, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// CloneMessage copies an optional error message.
func CloneMessage(msg *string) *string {
	if msg == nil {
		return nil
	}
	out := *msg
	return &out
}
