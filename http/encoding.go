package http

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
)

// Encoding selects how a request body is serialized before transmission.
type Encoding int

const (
	// EncodingRaw sends the body as-is. Mappings fall back to EncodingQuery.
	EncodingRaw Encoding = iota
	// EncodingQuery form-encodes a string-keyed mapping.
	EncodingQuery
	// EncodingJSON serializes the body as JSON.
	EncodingJSON
)

type encoderFunc func(body interface{}) (string, error)

var encoders = map[Encoding]encoderFunc{
	EncodingRaw:   encodeRaw,
	EncodingQuery: encodeQuery,
	EncodingJSON:  encodeJSON,
}

// String returns the encoding tag name
func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "RAW"
	case EncodingQuery:
		return "QUERY"
	case EncodingJSON:
		return "JSON"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ContentType returns the media type usually sent with the encoding.
func (e Encoding) ContentType() string {
	switch e {
	case EncodingQuery:
		return "application/x-www-form-urlencoded"
	case EncodingJSON:
		return "application/json"
	default:
		return ""
	}
}

// Encode serializes body with the given encoding. The returned encoding is
// the one actually used, which differs from enc when a mapping is supplied
// under EncodingRaw.
func Encode(body interface{}, enc Encoding) (string, Encoding, error) {
	if enc == EncodingRaw && isMapping(body) {
		enc = EncodingQuery
	}
	encoder, ok := encoders[enc]
	if !ok {
		return "", enc, fmt.Errorf("%w: unknown body encoding %d", ErrConfiguration, int(enc))
	}
	s, err := encoder(body)
	if err != nil {
		return "", enc, err
	}
	return s, enc, nil
}

func isMapping(body interface{}) bool {
	switch body.(type) {
	case url.Values, map[string]string, map[string][]string, map[string]interface{}:
		return true
	}
	return false
}

func encodeRaw(body interface{}) (string, error) {
	switch b := body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	case []byte:
		return string(b), nil
	case fmt.Stringer:
		return b.String(), nil
	default:
		return fmt.Sprint(b), nil
	}
}

func encodeQuery(body interface{}) (string, error) {
	values := url.Values{}
	switch b := body.(type) {
	case url.Values:
		values = b
	case map[string][]string:
		values = url.Values(b)
	case map[string]string:
		for k, v := range b {
			values.Set(k, v)
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(b))
		for k := range b {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := b[k].(type) {
			case []string:
				for _, item := range v {
					values.Add(k, item)
				}
			case []interface{}:
				for _, item := range v {
					values.Add(k, fmt.Sprint(item))
				}
			case nil:
				values.Set(k, "")
			default:
				values.Set(k, fmt.Sprint(v))
			}
		}
	case string:
		// already form-encoded
		return b, nil
	default:
		return "", fmt.Errorf("%w: query encoding requires a string-keyed mapping, got %T", ErrConfiguration, body)
	}
	return values.Encode(), nil
}

func encodeJSON(body interface{}) (string, error) {
	if raw, ok := body.(json.RawMessage); ok {
		return string(raw), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: encoding JSON body: %v", ErrConfiguration, err)
	}
	return string(data), nil
}
