package channel

import (
	"github.com/pkg/errors"

	"github.com/code-payments/iap-sandwich/bridge"
)

func stringArg(args bridge.Map, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", errors.Wrapf(ErrInvalidArgument, "missing %s", key)
	}

	s, ok := v.(string)
	if !ok {
		return "", errors.Wrapf(ErrInvalidArgument, "%s must be a string, got %T", key, v)
	}
	return s, nil
}

func boolArg(args bridge.Map, key string) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return false, errors.Wrapf(ErrInvalidArgument, "missing %s", key)
	}

	b, ok := v.(bool)
	if !ok {
		return false, errors.Wrapf(ErrInvalidArgument, "%s must be a bool, got %T", key, v)
	}
	return b, nil
}

// optionalBoolArg is boolArg with absence meaning false.
func optionalBoolArg(args bridge.Map, key string) (bool, error) {
	if v, ok := args[key]; !ok || v == nil {
		return false, nil
	}
	return boolArg(args, key)
}

func stringsArg(args bridge.Map, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "missing %s", key)
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidArgument, "%s[%d] must be a string, got %T", key, i, e)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "%s must be a list, got %T", key, v)
	}
}

// mapArg returns the nested map under key as a plain map, the form the SDK
// accepts for free-form payloads.
func mapArg(args bridge.Map, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "missing %s", key)
	}

	switch m := v.(type) {
	case bridge.Map:
		return map[string]any(m), nil
	case map[string]any:
		return m, nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "%s must be a map, got %T", key, v)
	}
}
