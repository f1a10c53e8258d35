package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Range is an inclusive interval of unsigned 64-bit integers, matching the
// node's (u64, u64) range.
type Range struct {
	Min uint64 `json:"min"`
	Max uint64 `json:"max"`
}

// rangeObject avoids recursion through Range's own (un)marshalers.
type rangeObject struct {
	Min *uint64 `json:"min"`
	Max *uint64 `json:"max"`
}

// MarshalJSON always emits the object form {"min":..,"max":..}.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeObject{Min: &r.Min, Max: &r.Max})
}

// UnmarshalJSON accepts both the object form used in requests and the
// two element array form [min, max] that nodes use in result payloads.
func (r *Range) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("range is required")
	}

	if data[0] == '[' {
		var pair []uint64
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("invalid range array: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("range array must have 2 elements, got %d", len(pair))
		}
		r.Min, r.Max = pair[0], pair[1]
		return nil
	}

	var obj rangeObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid range object: %w", err)
	}
	if obj.Min == nil || obj.Max == nil {
		return fmt.Errorf("range object requires min and max")
	}
	r.Min, r.Max = *obj.Min, *obj.Max
	return nil
}

// String renders the range the way the history table shows it.
func (r Range) String() string {
	return fmt.Sprintf("[%d..%d]", r.Min, r.Max)
}

// ResultEntry is one observed randomness result.
// Entries are values: once decoded they are copied, never mutated in place.
// Two structurally identical entries are still distinct history rows.
type ResultEntry struct {
	// SourcePeer identifies the node that generated the value.
	SourcePeer string `json:"rng_source"`

	// OriginPeer identifies the requester that triggered generation.
	OriginPeer string `json:"msg_source"`

	Range Range   `json:"range"`
	Value float64 `json:"value"`

	// Context is a free-form correlation tag chosen by the requester.
	Context string `json:"context,omitempty"`

	// ObservedAt is assigned by the producer at generation time.
	ObservedAt time.Time `json:"timestamp"`
}

// resultEntryWire tolerates "context": null from producers that encode
// an absent optional as null.
type resultEntryWire struct {
	SourcePeer string    `json:"rng_source"`
	OriginPeer string    `json:"msg_source"`
	Range      *Range    `json:"range"`
	Value      *float64  `json:"value"`
	Context    *string   `json:"context"`
	ObservedAt time.Time `json:"timestamp"`
}

// UnmarshalJSON decodes the node's wire shape. Range and value are required;
// value is deliberately not checked against the range.
func (e *ResultEntry) UnmarshalJSON(data []byte) error {
	var w resultEntryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Range == nil {
		return fmt.Errorf("result entry: missing range")
	}
	if w.Value == nil {
		return fmt.Errorf("result entry: missing value")
	}

	*e = ResultEntry{
		SourcePeer: w.SourcePeer,
		OriginPeer: w.OriginPeer,
		Range:      *w.Range,
		Value:      *w.Value,
		ObservedAt: w.ObservedAt,
	}
	if w.Context != nil {
		e.Context = *w.Context
	}
	return nil
}

// RequestSpec is one outbound generation request.
// It carries no identity: the resulting value is only observable through the
// push channel, indistinguishable from any other peer's result.
type RequestSpec struct {
	TargetPeer string `json:"target"`
	Range      Range  `json:"range"`
	Context    string `json:"context,omitempty"`
}

// Identity addresses a push channel: the local node plus the logical process.
type Identity struct {
	NodeID    string `json:"node_id"`
	ProcessID string `json:"process_id"`
}
