package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Event is the decoded form of a push-channel envelope {kind, data}.
// The set of variants is closed: NewRandomEvent or IgnoredEvent.
type Event interface {
	isEvent()
}

// NewRandomEvent announces a result produced by any peer.
type NewRandomEvent struct {
	Entry ResultEntry
}

// IgnoredEvent is an envelope whose kind is missing or not understood.
// Unknown kinds are expected (forward compatibility) and are not errors.
type IgnoredEvent struct {
	Kind string
}

func (NewRandomEvent) isEvent() {}
func (IgnoredEvent) isEvent()   {}

type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

var (
	errMissingData = errors.New("missing data")
	errNotObject   = errors.New("envelope is not a JSON object")
)

// DecodeEnvelope turns a raw frame into an Event.
// It returns a *ParseError when the frame is not a JSON object (null included)
// or when the data of a known kind cannot be decoded. An object without a kind
// is ignored.
func DecodeEnvelope(raw []byte) (Event, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Err: errNotObject}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Err: err}
	}

	switch env.Kind {
	case KindNewRandom:
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return nil, &ParseError{Kind: env.Kind, Err: errMissingData}
		}
		var entry ResultEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, &ParseError{Kind: env.Kind, Err: err}
		}
		return NewRandomEvent{Entry: entry}, nil
	default:
		return IgnoredEvent{Kind: env.Kind}, nil
	}
}

// EncodeNewRandom builds the envelope a node pushes for a fresh result.
func EncodeNewRandom(entry ResultEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: KindNewRandom, Data: data})
}
