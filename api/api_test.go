package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatPath(t *testing.T) {
	assert.Equal(t, "/heartbeat/42", HeartbeatPath(42))
	assert.Equal(t, "/heartbeat/-1", HeartbeatPath(-1))
}

func TestLeaseJSON(t *testing.T) {
	exp := time.UnixMilli(1700000000123)
	b, err := json.Marshal(NewLease(7, exp))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"exp":1700000000123}`, string(b))

	var l Lease
	require.NoError(t, json.Unmarshal(b, &l))
	assert.True(t, exp.Equal(l.ExpiresAt()))
}

func TestErrorBody(t *testing.T) {
	b, err := json.Marshal(NewErrorBody(CodeNoIDAvailable))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":1,"msg":"No id available!"}}`, string(b))

	assert.Equal(t, "Id expired!", Message(CodeIDExpired))
	assert.Equal(t, "Id nonexistent!", Message(CodeIDNonexistent))
	assert.Equal(t, "Unknown error 99", Message(99))
}
