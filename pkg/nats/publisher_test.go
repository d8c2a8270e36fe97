package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/abgdnv/inventory/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJetStream records published messages. Methods other than PublishMsg panic.
type fakeJetStream struct {
	jetstream.JetStream
	msgs []*nats.Msg
	err  error
}

func (f *fakeJetStream) PublishMsg(_ context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	return &jetstream.PubAck{Stream: "PRODUCTS"}, nil
}

func Test_NatsPublisher_Publish(t *testing.T) {
	// given
	js := &fakeJetStream{}
	p := NewNatsPublisher(js)
	event := events.ProductEvent{Type: events.ProductDeleted, ProductID: 7}
	// when
	err := p.Publish(context.Background(), event)
	// then
	require.NoError(t, err)
	require.Len(t, js.msgs, 1)
	assert.Equal(t, "products.deleted", js.msgs[0].Subject)
	assert.JSONEq(t, `{"type":"deleted","product_id":7,"quantity":0,"occurred_at":"0001-01-01T00:00:00Z"}`, string(js.msgs[0].Data))
}

func Test_NatsPublisher_WrapsPublishError(t *testing.T) {
	// given
	boom := errors.New("no responders")
	p := NewNatsPublisher(&fakeJetStream{err: boom})
	// when
	err := p.Publish(context.Background(), events.ProductEvent{Type: events.ProductCreated, ProductID: 1})
	// then
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to publish products.created")
}
