package domain

import (
	"encoding/json"
	"fmt"
)

// Envelope is the normalized response shape every transport call resolves to.
// The backend replies with {success, data?, message?, error?}; the transport
// guarantees callers never see anything else.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the error detail carried inside a response envelope.
// Raw holds a body excerpt when the reply could not be interpreted.
type EnvelopeError struct {
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

// ErrorMessage returns the most specific failure message the envelope
// carries, or the empty string for a successful envelope.
func (e Envelope) ErrorMessage() string {
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// DecodeData unmarshals the envelope's data payload into out.
// Returns an error if the envelope carries no data or the payload does not
// match the expected shape.
func (e Envelope) DecodeData(out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: envelope has no data", ErrNotFound)
	}

	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}

	return nil
}

// OK creates a successful envelope wrapping the given payload.
func OK(data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal envelope data: %w", err)
	}

	return Envelope{Success: true, Data: raw}, nil
}

// Fail creates a failed envelope with the given message.
func Fail(message string) Envelope {
	return Envelope{
		Success: false,
		Message: message,
		Error:   &EnvelopeError{Message: message},
	}
}
