package ctxdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetTraceID(ctx)
	assert.False(t, ok)

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithUserRole(ctx, "admin")

	traceID, ok := GetTraceID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "trace-1", traceID)

	userID, _ := GetUserID(ctx)
	assert.Equal(t, "user-1", userID)

	role, _ := GetUserRole(ctx)
	assert.Equal(t, "admin", role)
}
