package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestAndSessionIDs(t *testing.T) {
	ctx := context.Background()

	_, ok := GetRequestID(ctx)
	assert.False(t, ok)

	ctx = SetRequestID(ctx, "req_1")
	ctx = SetSessionID(ctx, "sess_1")

	requestID, ok := GetRequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req_1", requestID)

	sessionID, ok := GetSessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sess_1", sessionID)

	entry := Logger(ctx)
	assert.Equal(t, "req_1", entry.Data["request_id"])
	assert.Equal(t, "sess_1", entry.Data["session_id"])
}
