package http

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodTable(t *testing.T) {
	tests := []struct {
		method       Method
		requestBody  bool
		responseBody bool
	}{
		{MethodGet, false, true},
		{MethodPost, true, true},
		{MethodPut, true, true},
		{MethodDelete, true, true},
		{MethodPatch, true, true},
		{MethodHead, false, false},
		{MethodConnect, false, true},
		{MethodOptions, false, true},
		{MethodTrace, false, false},
	}

	require.Len(t, Methods(), len(tests))
	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			assert.Equal(t, tt.requestBody, tt.method.AcceptsBody())
			assert.Equal(t, tt.responseBody, tt.method.ReturnsBody())
		})
	}
}

func TestLookupMethod(t *testing.T) {
	m, caps, err := LookupMethod("post")
	require.NoError(t, err)
	assert.Equal(t, MethodPost, m)
	assert.True(t, caps.RequestBody)

	_, _, err = LookupMethod("BREW")
	assert.True(t, errors.Is(err, ErrConfiguration))
}
