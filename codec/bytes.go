package codec

// Bytes is an identity codec for []byte values, e.g. raw vertex dumps.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// ByName returns the snapshot codec registered under name:
// "json", "cbor", "msgpack" or "proto".
func ByName[V any](name string) (Codec[V], bool) {
	switch name {
	case "json":
		return JSON[V]{Indent: true}, true
	case "cbor":
		c, err := NewCBOR[V](true)
		if err != nil {
			return nil, false
		}
		return c, true
	case "msgpack":
		return Msgpack[V]{}, true
	case "proto":
		return Struct[V]{}, true
	default:
		return nil, false
	}
}
