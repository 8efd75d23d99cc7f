package varset

import (
	"encoding/json"

	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zclconf/go-cty/cty/gocty"
)

// EncodeValue renders v as its structured-text form. When the tag carries a
// representable cty.Type, it round-trips through go-cty's json encoding;
// otherwise it falls back to plain JSON. Either path is
// deterministic for a given value, which is all HashInputs and the
// persistence layer require.
func EncodeValue(tag TypeTag, v any) ([]byte, error) {
	if !tag.Unrepresentable() {
		cv, err := gocty.ToCtyValue(v, tag.Cty)
		if err == nil {
			if b, err := ctyjson.Marshal(cv, tag.Cty); err == nil {
				return b, nil
			}
		}
	}
	return json.Marshal(v)
}

// DecodeValue reverses EncodeValue into a concrete Go value of type T.
func DecodeValue[T any](tag TypeTag, data []byte) (T, error) {
	var out T
	if !tag.Unrepresentable() {
		cv, err := ctyjson.Unmarshal(data, tag.Cty)
		if err == nil {
			if err := gocty.FromCtyValue(cv, &out); err == nil {
				return out, nil
			}
		}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
