package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the versioned payload exchanged over a Transport. Validation
// is all-or-nothing: DecodeEnvelope either yields a fully well-typed
// envelope or fails. Unknown fields are preserved in Extra but never
// validated, favoring forward compatibility over a closed schema.
type Envelope struct {
	Type      string            `json:"type"`
	OrderID   int64             `json:"orderId"`
	UserID    int64             `json:"userId"`
	UserName  string            `json:"userName"`
	Total     float64           `json:"total"`
	Timestamp string            `json:"timestamp,omitempty"`
	Carrier   map[string]string `json:"carrier,omitempty"`

	// Extra holds unrecognized fields, carried through decode/encode
	// untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields are consumed into typed Envelope fields; everything else
// lands in Extra.
var knownFields = map[string]struct{}{
	"type":      {},
	"orderId":   {},
	"userId":    {},
	"userName":  {},
	"total":     {},
	"timestamp": {},
	"carrier":   {},
}

var jsonNull = []byte("null")

// DecodeEnvelope parses untrusted bytes into an Envelope. All returned
// errors wrap ErrInvalidEnvelope. Required fields must be present and of
// the exact JSON type: numeric fields must be numbers, not numeric-looking
// strings, and a carrier must be a flat string-to-string object.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", ErrInvalidEnvelope, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: top-level value is null", ErrInvalidEnvelope)
	}

	env := &Envelope{}

	if err := requireField(fields, "type", &env.Type); err != nil {
		return nil, err
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: field %q must not be empty", ErrInvalidEnvelope, "type")
	}
	if err := requireField(fields, "orderId", &env.OrderID); err != nil {
		return nil, err
	}
	if err := requireField(fields, "userId", &env.UserID); err != nil {
		return nil, err
	}
	if err := requireField(fields, "userName", &env.UserName); err != nil {
		return nil, err
	}
	if err := requireField(fields, "total", &env.Total); err != nil {
		return nil, err
	}
	if env.Total < 0 {
		return nil, fmt.Errorf("%w: field %q must be >= 0", ErrInvalidEnvelope, "total")
	}

	if ts, ok := fields["timestamp"]; ok {
		if err := json.Unmarshal(ts, &env.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidEnvelope, "timestamp", err)
		}
	}

	if c, ok := fields["carrier"]; ok {
		if bytes.Equal(bytes.TrimSpace(c), jsonNull) {
			return nil, fmt.Errorf("%w: field %q must be a string map", ErrInvalidEnvelope, "carrier")
		}
		if err := json.Unmarshal(c, &env.Carrier); err != nil {
			return nil, fmt.Errorf("%w: field %q must be a string map: %v", ErrInvalidEnvelope, "carrier", err)
		}
	}

	for k, v := range fields {
		if _, known := knownFields[k]; known {
			continue
		}
		if env.Extra == nil {
			env.Extra = make(map[string]json.RawMessage, 2)
		}
		env.Extra[k] = v
	}

	return env, nil
}

func requireField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok {
		return fmt.Errorf("%w: missing required field %q", ErrInvalidEnvelope, name)
	}
	// Unmarshal treats null as a no-op for any destination type; a null
	// required field is as invalid as a missing one.
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return fmt.Errorf("%w: required field %q is null", ErrInvalidEnvelope, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrInvalidEnvelope, name, err)
	}
	return nil
}

// Encode serializes the envelope as a flat JSON object, merging Extra
// fields back in. Typed fields win on key collision.
func (e *Envelope) Encode() ([]byte, error) {
	out := make(map[string]any, len(knownFields)+len(e.Extra))
	for k, v := range e.Extra {
		out[k] = v
	}
	out["type"] = e.Type
	out["orderId"] = e.OrderID
	out["userId"] = e.UserID
	out["userName"] = e.UserName
	out["total"] = e.Total
	if e.Timestamp != "" {
		out["timestamp"] = e.Timestamp
	}
	if len(e.Carrier) > 0 {
		out["carrier"] = e.Carrier
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("queue: encode envelope: %w", err)
	}
	return b, nil
}
