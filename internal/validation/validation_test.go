package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/bigbrother/internal/validation"
)

type loginBody struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=8"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		body     loginBody
		wantOK   bool
		wantMsgs []string
	}{
		{
			name:   "valid",
			body:   loginBody{Username: "admin", Password: "correct-horse"},
			wantOK: true,
		},
		{
			name:     "missing both",
			body:     loginBody{},
			wantMsgs: []string{"username is required", "password is required"},
		},
		{
			name:     "too short",
			body:     loginBody{Username: "ab", Password: "short"},
			wantMsgs: []string{"username must be at least 3 characters long", "password must be at least 8 characters long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, ok := validation.Struct(tt.body)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsgs, msgs)
		})
	}
}

func TestAppName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "simple", in: "myapp", want: true},
		{name: "dashes dots underscores", in: "big-brother_api.v2", want: true},
		{name: "dot", in: ".", want: false},
		{name: "dotdot", in: "..", want: false},
		{name: "traversal", in: "../etc/passwd", want: false},
		{name: "slash", in: "a/b", want: false},
		{name: "empty", in: "", want: false},
		{name: "space", in: "my app", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.AppName(tt.in))
		})
	}
}
