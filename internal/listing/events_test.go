package listing

import (
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestKafkaPublisher_WritesAsync(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:9"}, "listing-events", nil)
	t.Cleanup(func() { _ = p.Close() })

	assert.True(t, p.w.Async)
	assert.NotNil(t, p.w.Completion)
}

func TestKafkaPublisher_LogsFailedDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewKafkaPublisher([]string{"127.0.0.1:9"}, "listing-events", zap.New(core))
	t.Cleanup(func() { _ = p.Close() })

	msgs := []kafka.Message{
		{Key: []byte("p_1"), Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(EventSaved)}}},
		{Key: []byte("p_2"), Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(EventDeleted)}}},
	}

	p.w.Completion(msgs, nil)
	assert.Zero(t, logs.Len())

	p.w.Completion(msgs, errors.New("broker unreachable"))
	require.Equal(t, 2, logs.Len())

	first := logs.All()[0].ContextMap()
	assert.Equal(t, "p_1", first["product_id"])
	assert.Equal(t, string(EventSaved), first["type"])
	assert.Equal(t, "listing-events", first["topic"])
}
