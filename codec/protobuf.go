package codec

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct encodes any JSON-marshalable V as a google.protobuf.Struct message,
// so plain Go diagnostics types can be shipped to protobuf consumers without
// generated code. Numbers come back as float64 on Decode, as with JSON.
type Struct[V any] struct{}

func (Struct[V]) Encode(v V) ([]byte, error) {
	j, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(j, s); err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (Struct[V]) Decode(b []byte) (V, error) {
	var v V
	s := &structpb.Struct{}
	if err := proto.Unmarshal(b, s); err != nil {
		return v, err
	}
	j, err := protojson.Marshal(s)
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(j, &v)
	return v, err
}
