package messaging

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings controls when the publisher circuit opens.
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	ErrorRatePercent    int
	OpenTimeout         time.Duration
	// OnStateChange, when set, is called on every circuit transition.
	OnStateChange func(name, from, to string)
}

// BreakerPublisher guards a Publisher with a circuit breaker so that an unavailable broker
// fails fast instead of stalling every write.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerPublisher wraps next in a circuit breaker configured from s.
func NewBreakerPublisher(next Publisher, s BreakerSettings) *BreakerPublisher {
	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures ||
				(total >= s.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(s.ErrorRatePercent))
		},
	}
	if s.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			s.OnStateChange(name, from.String(), to.String())
		}
	}
	return &BreakerPublisher{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](st),
	}
}

// Publish forwards the event unless the circuit is open, in which case
// gobreaker.ErrOpenState is returned without contacting the broker.
func (p *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Publish(ctx, event)
	})
	return err
}

// State reports the current circuit state.
func (p *BreakerPublisher) State() gobreaker.State {
	return p.cb.State()
}
