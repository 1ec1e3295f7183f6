package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Getting Started", "getting-started"},
		{"  Hello, World!  ", "hello-world"},
		{"already-a-slug", "already-a-slug"},
		{"CAPS and   spaces", "caps-and-spaces"},
		{"--trim--", "trim"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in), "Make(%q)", tt.in)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("getting-started"))
	assert.True(t, Valid("a"))
	assert.False(t, Valid("Getting Started"))
	assert.False(t, Valid("-leading"))
	assert.False(t, Valid("trailing-"))
	assert.False(t, Valid("double--hyphen"))
	assert.False(t, Valid(""))
}
