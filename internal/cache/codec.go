package cache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/lifecandle/internal/domain"
)

// Codec serializes results for the ephemeral store
type Codec interface {
	Name() string
	Marshal(result domain.AnalysisResult) ([]byte, error)
	Unmarshal(data []byte) (domain.AnalysisResult, error)
}

// NewCodec returns the codec registered under name
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown cache codec %q", name)
	}
}

// JSONCodec stores results in their wire format
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(result domain.AnalysisResult) ([]byte, error) {
	return json.Marshal(result)
}

func (JSONCodec) Unmarshal(data []byte) (domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return result, nil
}

// MsgpackCodec is a compact binary encoding keyed by the JSON field names
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Marshal(result domain.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Unmarshal(data []byte) (domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return result, nil
}
