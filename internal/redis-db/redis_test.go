package redis_db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantAddr     string
		wantPassword string
		wantErr      bool
	}{
		{
			name:     "docker style host port",
			url:      "redis:6379",
			wantAddr: "redis:6379",
		},
		{
			name:         "url with password",
			url:          "redis://:password123@localhost:6379",
			wantAddr:     "localhost:6379",
			wantPassword: "password123",
		},
		{
			name:         "url with password missing colon",
			url:          "redis://password123@localhost:6379",
			wantAddr:     "localhost:6379",
			wantPassword: "password123",
		},
		{
			name:    "unparseable scheme",
			url:     "http://localhost:6379",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRedisURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantAddr, got.Addr)
			assert.Equal(t, tt.wantPassword, got.Password)
		})
	}
}

func TestNewRedisClient_EmptyAddresses(t *testing.T) {
	_, err := NewRedisClient([]string{})
	assert.Error(t, err)
}
