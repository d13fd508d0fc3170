package service

import (
	"encoding/json"
	"fmt"
)

// JSONCodec carries the plain Go request and response structs over Connect. It replaces
// Connect's default "json" codec, which only handles protobuf messages.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	return nil
}
