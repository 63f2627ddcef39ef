package storage

import (
	"encoding/json"
	"fmt"

	"github.com/weftworks/loom/core"
)

// Records are persisted as JSON. Content items carry nested derived fields
// and edges carry free-form properties, both of which map cleanly onto JSON,
// and a single codec serves all three stores.

// MarshalContentItem serializes a ContentItem to bytes.
func MarshalContentItem(item *core.ContentItem) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalContentItem deserializes a ContentItem from bytes.
func UnmarshalContentItem(data []byte) (*core.ContentItem, error) {
	var item core.ContentItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &item, nil
}

// vectorEntry is the stored form of an embedding with its payload mirror.
type vectorEntry struct {
	Vector  []float32     `json:"vector"`
	Payload VectorPayload `json:"payload"`
}

// MarshalVectorEntry serializes an embedding and its payload to bytes.
func MarshalVectorEntry(vector []float32, payload VectorPayload) ([]byte, error) {
	data, err := json.Marshal(vectorEntry{Vector: vector, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalVectorEntry deserializes an embedding and its payload from bytes.
func UnmarshalVectorEntry(data []byte) ([]float32, VectorPayload, error) {
	var entry vectorEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, VectorPayload{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return entry.Vector, entry.Payload, nil
}

// MarshalEdge serializes an Edge to bytes.
func MarshalEdge(edge *core.Edge) ([]byte, error) {
	data, err := json.Marshal(edge)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalEdge deserializes an Edge from bytes.
func UnmarshalEdge(data []byte) (*core.Edge, error) {
	var edge core.Edge
	if err := json.Unmarshal(data, &edge); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &edge, nil
}
