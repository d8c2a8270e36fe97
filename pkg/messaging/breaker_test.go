package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct{}

func (stubEvent) Subject() string          { return ProductCreatedSubject }
func (stubEvent) Payload() ([]byte, error) { return []byte(`{}`), nil }

type countingPublisher struct {
	calls int
	err   error
}

func (c *countingPublisher) Publish(_ context.Context, _ Event) error {
	c.calls++
	return c.err
}

func Test_BreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	// given
	broker := &countingPublisher{err: errors.New("nats: no responders")}
	p := NewBreakerPublisher(broker, BreakerSettings{
		Name:                "test",
		ConsecutiveFailures: 2,
		ErrorRatePercent:    100,
		OpenTimeout:         time.Minute,
	})

	// when
	err1 := p.Publish(context.Background(), stubEvent{})
	err2 := p.Publish(context.Background(), stubEvent{})
	err3 := p.Publish(context.Background(), stubEvent{})

	// then
	assert.EqualError(t, err1, "nats: no responders")
	assert.EqualError(t, err2, "nats: no responders")
	assert.ErrorIs(t, err3, gobreaker.ErrOpenState)
	assert.Equal(t, 2, broker.calls, "open circuit must not reach the broker")
	assert.Equal(t, gobreaker.StateOpen, p.State())
}

func Test_BreakerPublisher_PassesThrough(t *testing.T) {
	// given
	broker := &countingPublisher{}
	p := NewBreakerPublisher(broker, BreakerSettings{Name: "test", ConsecutiveFailures: 1, ErrorRatePercent: 50, OpenTimeout: time.Second})

	// when
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Publish(context.Background(), stubEvent{}))
	}

	// then
	assert.Equal(t, 3, broker.calls)
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func Test_NopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), stubEvent{}))
}

func Test_BreakerPublisher_ReportsStateChanges(t *testing.T) {
	// given
	var transitions []string
	p := NewBreakerPublisher(&countingPublisher{err: errors.New("down")}, BreakerSettings{
		Name:                "events",
		ConsecutiveFailures: 1,
		ErrorRatePercent:    100,
		OpenTimeout:         time.Minute,
		OnStateChange: func(name, from, to string) {
			transitions = append(transitions, name+":"+from+"->"+to)
		},
	})

	// when
	_ = p.Publish(context.Background(), stubEvent{})

	// then
	assert.Equal(t, []string{"events:closed->open"}, transitions)
}
