// Package pb carries service messages over gRPC as google.protobuf.Struct
// values, so the services share one message type instead of generated code.
package pb

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts v to a Struct through its JSON form.
func Encode(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode fills v from the JSON form of s. A nil Struct leaves v untouched.
func Decode(s *structpb.Struct, v interface{}) error {
	if s == nil {
		return nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
