package handler

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec serves plain Go structs as application/json. The built-in connect
// JSON codec only handles protobuf messages.
type jsonCodec struct{}

// Codec returns the codec used by ImportHandler procedures. Clients must be
// created with the same codec.
func Codec() connect.Codec { return jsonCodec{} }

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
