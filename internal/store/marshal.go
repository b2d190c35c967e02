package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/comboseq/internal/ir"
)

// marshalJSON converts v to canonical JSON TEXT for storage.
// Nil maps and slices are stored as their empty form so column defaults
// and written rows look the same.
func marshalJSON(v any, empty string) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func marshalActions(actions map[string]ir.InputEvent) (string, error) {
	s, err := marshalJSON(actions, "{}")
	if err != nil {
		return "", fmt.Errorf("marshal actions: %w", err)
	}
	return s, nil
}

func marshalAxes(axes map[string]float64) (string, error) {
	s, err := marshalJSON(axes, "{}")
	if err != nil {
		return "", fmt.Errorf("marshal axes: %w", err)
	}
	return s, nil
}

func marshalResets(resets []ir.ExternalReset) (string, error) {
	s, err := marshalJSON(resets, "[]")
	if err != nil {
		return "", fmt.Errorf("marshal resets: %w", err)
	}
	return s, nil
}

func marshalResetSources(sources []ir.ResetSource) (string, error) {
	s, err := marshalJSON(sources, "[]")
	if err != nil {
		return "", fmt.Errorf("marshal reset sources: %w", err)
	}
	return s, nil
}

// marshalObject stores the opaque call object. A nil object is "null".
func marshalObject(obj any) (string, error) {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

func unmarshalActions(data string) (map[string]ir.InputEvent, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var m map[string]ir.InputEvent
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	return m, nil
}

func unmarshalAxes(data string) (map[string]float64, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal axes: %w", err)
	}
	return m, nil
}

func unmarshalResets(data string) ([]ir.ExternalReset, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var r []ir.ExternalReset
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal resets: %w", err)
	}
	return r, nil
}

func unmarshalResetSources(data string) ([]ir.ResetSource, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var r []ir.ResetSource
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal reset sources: %w", err)
	}
	return r, nil
}

func unmarshalObject(data string) (any, error) {
	if data == "" || data == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return v, nil
}
