package core

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{name: "session prefix", prefix: "sess", expected: "sess_"},
		{name: "uppercase prefix gets lowercased", prefix: "REQ", expected: "req_"},
		{name: "prefix with spaces gets trimmed", prefix: "  ho  ", expected: "ho_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewID(tt.prefix)

			assert.True(t, strings.HasPrefix(got, tt.expected))
			assert.Len(t, strings.TrimPrefix(got, tt.expected), ulid.EncodedSize)
			_, err := ulid.ParseStrict(strings.TrimPrefix(got, tt.expected))
			assert.NoError(t, err)
		})
	}

	t.Run("ids are unique", func(t *testing.T) {
		assert.NotEqual(t, NewID("sess"), NewID("sess"))
	})

	t.Run("empty prefix panics", func(t *testing.T) {
		assert.Panics(t, func() { NewID("  ") })
	})
}
