package http

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringer struct{}

func (stringer) String() string { return "from-stringer" }

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		enc      Encoding
		expected string
		used     Encoding
	}{
		{name: "raw string", body: "TestBody1", enc: EncodingRaw, expected: "TestBody1", used: EncodingRaw},
		{name: "raw bytes", body: []byte("bytes"), enc: EncodingRaw, expected: "bytes", used: EncodingRaw},
		{name: "raw stringer", body: stringer{}, enc: EncodingRaw, expected: "from-stringer", used: EncodingRaw},
		{name: "raw number", body: 42, enc: EncodingRaw, expected: "42", used: EncodingRaw},
		{name: "raw mapping falls back to query", body: map[string]string{"a": "1"}, enc: EncodingRaw, expected: "a=1", used: EncodingQuery},
		{name: "query mapping", body: map[string]string{"search": "value"}, enc: EncodingQuery, expected: "search=value", used: EncodingQuery},
		{name: "query escapes", body: map[string]string{"q": "a b&c"}, enc: EncodingQuery, expected: "q=a+b%26c", used: EncodingQuery},
		{name: "query values", body: url.Values{"k": {"1", "2"}}, enc: EncodingQuery, expected: "k=1&k=2", used: EncodingQuery},
		{name: "query any", body: map[string]interface{}{"n": 1, "s": "x"}, enc: EncodingQuery, expected: "n=1&s=x", used: EncodingQuery},
		{name: "json list", body: []string{"TestBody3"}, enc: EncodingJSON, expected: `["TestBody3"]`, used: EncodingJSON},
		{name: "json object", body: map[string]int{"a": 1}, enc: EncodingJSON, expected: `{"a":1}`, used: EncodingJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, used, err := Encode(tt.body, tt.enc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.used, used)
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	_, _, err := Encode([]int{1, 2}, EncodingQuery)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, _, err = Encode(make(chan int), EncodingJSON)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, _, err = Encode("x", Encoding(99))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestEncodingNames(t *testing.T) {
	assert.Equal(t, "RAW", EncodingRaw.String())
	assert.Equal(t, "QUERY", EncodingQuery.String())
	assert.Equal(t, "JSON", EncodingJSON.String())
	assert.Equal(t, "application/json", EncodingJSON.ContentType())
}
