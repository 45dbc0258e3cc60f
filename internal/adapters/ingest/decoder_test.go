package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselabs/sleuth/internal/domain"
)

func sampleBatch() *domain.LogBatch {
	return &domain.LogBatch{
		LogGroup:  "/app/payment-service",
		LogStream: "2026/08/24/[42]abc",
		Events: []domain.LogEvent{
			{Timestamp: 1756000000000, Message: "START RequestId: 1b2c"},
			{Timestamp: 1756000000100, Message: "Runtime exited with error: out of memory"},
		},
	}
}

func TestDecodeEnvelopeRoundTrip(t *testing.T) {
	raw, err := Encode(sampleBatch())
	require.NoError(t, err)

	batch, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, sampleBatch(), batch)
}

func TestDecodeBarePayload(t *testing.T) {
	payload := []byte(`{
		"logGroup": "/app/payment-service",
		"logStream": "s",
		"logEvents": [{"timestamp": 1, "message": "hello"}]
	}`)

	batch, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "/app/payment-service", batch.LogGroup)
	require.Len(t, batch.Events, 1)
	assert.Equal(t, "hello", batch.Events[0].Message)
}

func TestDecodePayloadWithoutEvents(t *testing.T) {
	batch, err := DecodePayload([]byte(`{"logGroup": "g"}`))
	require.NoError(t, err)
	assert.NotNil(t, batch.Events)
	assert.Empty(t, batch.Events)
}

func TestDecodeRecordRejectsBadInput(t *testing.T) {
	t.Run("not base64", func(t *testing.T) {
		_, err := DecodeRecord("!!! definitely not base64 !!!")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base64")
	})

	t.Run("base64 but not gzip", func(t *testing.T) {
		_, err := DecodeRecord("aGVsbG8gd29ybGQ=")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gzip")
	})
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
