package qdrant

import (
	"encoding/json"
	"strconv"
	"strings"
)

type qdrantEnvelope[T any] struct {
	Status qdrantStatus `json:"status"`
	Result T            `json:"result"`
}

type qdrantStatus struct {
	State string `json:"status"`
	Error string `json:"error,omitempty"`
}

func (s *qdrantStatus) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}

	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

// pointId accepts both uuid and integer point ids.
type pointId string

func (id *pointId) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = pointId(v)
		return nil
	}

	var n uint64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = pointId(strconv.FormatUint(n, 10))
	return nil
}

type qdrantPoint struct {
	Id      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type qdrantPointResult struct {
	Id      pointId        `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type qdrantScrollResult struct {
	Points         []qdrantPointResult `json:"points"`
	NextPageOffset json.RawMessage     `json:"next_page_offset,omitempty"`
}

type qdrantCondition struct {
	Key   string         `json:"key"`
	Match map[string]any `json:"match"`
}

type qdrantFilter struct {
	Must []qdrantCondition `json:"must"`
}
