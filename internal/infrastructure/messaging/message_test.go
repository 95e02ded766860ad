package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichJobMessageRoundTrip(t *testing.T) {
	job := &EnrichJobMessage{EventID: "evt_abc123def456", RunID: "run-1"}
	msg, err := NewMessage(job.EventID, TypeValueEnrich, job.RunID, job)
	require.NoError(t, err)

	assert.Equal(t, "evt_abc123def456", msg.ID)
	assert.Equal(t, TypeValueEnrich, msg.Type)

	var got EnrichJobMessage
	require.NoError(t, msg.UnmarshalPayload(&got))
	assert.Equal(t, *job, got)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: time.Minute, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(3))
	// 封顶在 Max
	assert.Equal(t, time.Minute, cfg.CalculateBackoff(10))
}

func TestDLQStreamName(t *testing.T) {
	assert.Equal(t, "dlq:stream:enrich:value", StreamValueEnrich.DLQStream())
}
