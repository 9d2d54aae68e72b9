package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	t.Run("valid email is normalised", func(t *testing.T) {
		normalized, err := ValidateEmail("  Debtor@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "debtor@example.com", normalized)
	})

	t.Run("plain valid email", func(t *testing.T) {
		normalized, err := ValidateEmail("debtor@example.com")
		require.NoError(t, err)
		assert.Equal(t, "debtor@example.com", normalized)
	})

	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{name: "empty", input: "   ", expected: ErrEmailMissing},
		{name: "not an email", input: "not an email", expected: ErrEmailInvalid},
		{name: "missing tld", input: "a@b", expected: ErrEmailInvalid},
		{name: "display name form", input: "Debtor <debtor@example.com>", expected: ErrEmailInvalid},
		{name: "double at", input: "a@@example.com", expected: ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := ValidateEmail(tt.input)
			assert.ErrorIs(t, err, tt.expected)
			assert.Empty(t, normalized)
		})
	}

	t.Run("corrective message is user facing", func(t *testing.T) {
		_, err := ValidateEmail("a@b")
		assert.Equal(t, "That doesn't look like a valid email address. Please check and try again.", err.Error())
	})
}

func TestDetectIDNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "13 digits", input: "9001015009087", expected: "9001015009087", ok: true},
		{name: "with spaces", input: "900101 5009 087", expected: "9001015009087", ok: true},
		{name: "with hyphens", input: "900101-5009-087", expected: "9001015009087", ok: true},
		{name: "surrounding whitespace", input: "  9001015009087\n", expected: "9001015009087", ok: true},
		{name: "12 digits", input: "900101500908", ok: false},
		{name: "14 digits", input: "90010150090871", ok: false},
		{name: "contains letters", input: "900101500908A", ok: false},
		{name: "sentence", input: "my id is 9001015009087", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := DetectIDNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestFindIDNumber(t *testing.T) {
	id, ok := FindIDNumber("sure, my id is 900101 5009 087 thanks")
	assert.True(t, ok)
	assert.Equal(t, "9001015009087", id)

	_, ok = FindIDNumber("I want to pay R500 per month")
	assert.False(t, ok)

	_, ok = FindIDNumber("my number is 90010150090871")
	assert.False(t, ok)
}

func TestIsNumericReply(t *testing.T) {
	assert.True(t, IsNumericReply("12345"))
	assert.True(t, IsNumericReply("123-45 67"))
	assert.False(t, IsNumericReply("R500"))
	assert.False(t, IsNumericReply(""))
}
