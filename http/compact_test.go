package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "breaks around tags", input: "<div>\n\t<span>x</span>\n</div>", expected: "<div><span>x</span></div>"},
		{name: "collapses runs", input: "<p>a    b</p>", expected: "<p>a b</p>"},
		{name: "inline break", input: "<p>a\nb</p>", expected: "<p>a b</p>"},
		{name: "keeps pre", input: "<p>x</p><pre>line1\nline2</pre>", expected: "<p>x</p><pre>line1\nline2</pre>"},
		{name: "plain text", input: "no markup", expected: "no markup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompactHTML(tt.input))
		})
	}
}
