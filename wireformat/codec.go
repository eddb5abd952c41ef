// Package wireformat registers the gRPC codec both the sequencer's
// inbound service and its outbound node manager clients use. The wire
// schema is treated as opaque named-field messages rather than a fixed
// protobuf schema, so this package carries a generic encoding/json-backed
// codec instead of generated protobuf marshaling.
// Importing this package for its side effect (codec registration) is
// enough to make CodecName usable on either end of a connection.
package wireformat

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype negotiated for every call the
// sequencer makes or serves.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}
