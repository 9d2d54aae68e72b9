package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplies(t *testing.T) {
	t.Run("affirmative", func(t *testing.T) {
		for _, reply := range []string{"Yes", "yes!", " Sure ", "OK 👍", "Go ahead."} {
			assert.True(t, IsAffirmative(reply), reply)
		}
		assert.False(t, IsAffirmative("yes but only R200"))
	})

	t.Run("negative", func(t *testing.T) {
		for _, reply := range []string{"No", "nope.", "Cancel"} {
			assert.True(t, IsNegative(reply), reply)
		}
		assert.False(t, IsNegative("know"))
	})

	t.Run("approval request", func(t *testing.T) {
		for _, reply := range []string{"1", "Option 1", "please request approval", "yes"} {
			assert.True(t, IsApprovalRequest(reply), reply)
		}
		assert.False(t, IsApprovalRequest("I'll pay R300 instead"))
	})
}
