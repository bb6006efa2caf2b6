package request

import (
	"encoding/json"
	"log"

	"google.golang.org/protobuf/proto"
)

// JSONKey derives the canonical key from the JSON encoding of id. Identifiers
// with the same structure map to the same key, whatever their identity. Map
// keys are encoded in sorted order. Identifiers json cannot encode (channels,
// funcs, cyclic values) are unsupported and panic.
func JSONKey[ID any](id ID) string {
	b, err := json.Marshal(id)
	if err != nil {
		log.Panicf("request: unable to derive key for %v: %v", id, err)
	}
	return string(b)
}

func StringKey[ID ~string](id ID) string {
	return string(id)
}

// ProtoKey derives the canonical key from the deterministic wire encoding of
// a protobuf message. Only the encoding is keyed, so messages of different
// types with identical encodings share a key.
func ProtoKey[ID proto.Message](id ID) string {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(id)
	if err != nil {
		log.Panicf("request: unable to derive key for %v: %v", id, err)
	}
	return string(b)
}
