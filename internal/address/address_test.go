package address

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := "vLRHFqCw1uHu75xqB4fCDW-QxpkpJxBtFD9g4QYUbfw"

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "valid address", in: valid, want: true},
		{name: "all allowed symbols", in: strings.Repeat("aZ9_-", 8) + "abc", want: true},
		{name: "empty", in: "", want: false},
		{name: "too short", in: valid[:42], want: false},
		{name: "too long", in: valid + "a", want: false},
		{name: "not 43 chars", in: "not-43-chars", want: false},
		{name: "plus sign", in: valid[:42] + "+", want: false},
		{name: "slash", in: "/" + valid[1:], want: false},
		{name: "padding", in: valid[:42] + "=", want: false},
		{name: "space", in: valid[:21] + " " + valid[22:], want: false},
		{name: "non ascii", in: valid[:41] + "é", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.in))
			// pure: repeated calls agree
			assert.Equal(t, IsValid(tt.in), IsValid(tt.in))
		})
	}
}
