package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Event{Resource: "quizzes", RecordID: "q1", Action: "hard_delete", UserID: "admin-1", OccurredAt: at}

	t.Run("WritesKeyedJSON", func(t *testing.T) {
		w := &fakeWriter{}
		p := &Producer{writer: w, topic: "lms.admin.actions"}

		require.NoError(t, p.Publish(context.Background(), e))
		require.Len(t, w.msgs, 1)

		msg := w.msgs[0]
		assert.Equal(t, "lms.admin.actions", msg.Topic)
		assert.Equal(t, []byte("q1"), msg.Key)
		assert.Equal(t, at, msg.Time)

		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, "quizzes", body["resource"])
		assert.Equal(t, "q1", body["recordId"])
		assert.Equal(t, "hard_delete", body["action"])
		assert.Equal(t, "admin-1", body["userId"])
		assert.Equal(t, "2026-03-01T10:00:00Z", body["occurredAt"])
	})

	t.Run("WriterError", func(t *testing.T) {
		boom := errors.New("broker down")
		p := &Producer{writer: &fakeWriter{err: boom}, topic: "t"}

		err := p.Publish(context.Background(), e)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Close", func(t *testing.T) {
		w := &fakeWriter{}
		p := &Producer{writer: w, topic: "t"}
		require.NoError(t, p.Close())
		assert.True(t, w.closed)
	})
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(Config{Topic: "t"})
	assert.Error(t, err)

	_, err = NewProducer(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.Publish(context.Background(), Event{}))
	assert.NoError(t, n.Close())
}
