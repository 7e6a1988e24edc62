package bridge

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// Map is the neutral representation handed across the host boundary.
//
// Values are primitives (string, bool, integers, floats), nested Maps, []any
// sequences of the same, or nil. A nil value is absent and is removed by Clean
// before the Map leaves this process.
type Map map[string]any

// Clean returns a copy of m with absent values removed at every depth,
// including inside sequences and nested maps. Present zero values (false, 0,
// "", empty sequences) are kept.
//
// Nested map[string]any and []Map values are normalized to Map and []any.
func (m Map) Clean() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if cleaned, ok := clean(v); ok {
			out[k] = cleaned
		}
	}
	return out
}

func clean(v any) (any, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false
	case Map:
		if v == nil {
			return nil, false
		}
		return v.Clean(), true
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return Map(v).Clean(), true
	case []Map:
		out := make([]any, 0, len(v))
		for _, e := range v {
			if cleaned, ok := clean(e); ok {
				out = append(out, cleaned)
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			if cleaned, ok := clean(e); ok {
				out = append(out, cleaned)
			}
		}
		return out, true
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	default:
		return v, true
	}
}

// ToStruct cleans m and converts it into a protobuf Struct for the wire.
func (m Map) ToStruct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(plain(m.Clean()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert map to struct")
	}
	return s, nil
}

// FromStruct converts a protobuf Struct received from the wire into a Map.
//
// Numbers arrive as float64, as they do in any JSON-shaped payload.
func FromStruct(s *structpb.Struct) Map {
	if s == nil {
		return Map{}
	}
	return Map(s.AsMap()).Clean()
}

// plain strips the named Map type so structpb, which switches on
// map[string]any, accepts nested values.
func plain(m Map) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch v := v.(type) {
	case Map:
		return plain(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
