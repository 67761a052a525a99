package kafka

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducerWithWriter(w)

	err := p.Publish(context.Background(), "tracking.looked_up", []byte("ups:N1"), []byte(`{"status":"DELIVERED"}`))
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "tracking.looked_up", w.msgs[0].Topic)
	require.Equal(t, []byte("ups:N1"), w.msgs[0].Key)
}

func TestProducer_Publish_wrapsError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducerWithWriter(w)

	err := p.Publish(context.Background(), "t", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kafka publish")
	require.Contains(t, err.Error(), "broker down")
}
