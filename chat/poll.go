package chat

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aschepis/aichat/llm"
)

const (
	// DefaultPollTimeout bounds a waiting GetResponse call.
	DefaultPollTimeout = 5 * time.Minute

	pollJitterFraction = 0.1
	pollBaseOffset     = 2 * time.Second
	pollAttemptCap     = 10
)

// errPollPending drives another retry attempt; the response has not reached a
// terminal status yet.
var errPollPending = errors.New("response not yet terminal")

type pollConfig struct {
	wait    bool
	timeout time.Duration
}

// PollOption configures a GetResponse call.
type PollOption func(*pollConfig)

// WithWait blocks until the response reaches a terminal status or the
// timeout elapses. Without it, GetResponse performs exactly one retrieval.
func WithWait() PollOption {
	return func(cfg *pollConfig) { cfg.wait = true }
}

// WithTimeout overrides the waiting timeout. On timeout the remote operation
// is cancelled and the returned message carries a cancelled status; a
// timeout is not an error.
func WithTimeout(d time.Duration) PollOption {
	return func(cfg *pollConfig) { cfg.timeout = d }
}

// GetResponse retrieves the state of the in-flight background generation and
// reconciles it into the message list. The default is a single retrieval for
// manual polling loops; WithWait polls with capped polynomial backoff.
func (c *Chat) GetResponse(ctx context.Context, opts ...PollOption) (*llm.Message, error) {
	cfg := pollConfig{timeout: DefaultPollTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := c.pendingResponseID
	if id == "" {
		id = c.LastResponseID
	}
	if id == "" {
		return nil, llm.NewConfigError("no in-flight response to poll; call Generate first")
	}

	if !cfg.wait {
		resp, err := c.client.RetrieveResponse(ctx, id)
		if err != nil {
			return nil, err
		}
		return c.parseResponse(ctx, resp)
	}

	policy := backoff.WithContext(&deadlineBackOff{
		inner:    newPollBackOff(c.jitter),
		deadline: c.now().Add(cfg.timeout),
		now:      c.now,
	}, ctx)

	var msg *llm.Message
	operation := func() error {
		resp, err := c.client.RetrieveResponse(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		m, err := c.parseResponse(ctx, resp)
		if err != nil {
			return backoff.Permanent(err)
		}
		msg = m
		if m.Status.Terminal() {
			return nil
		}
		return errPollPending
	}

	err := backoff.RetryNotifyWithTimer(operation, policy, nil, &sleepTimer{ctx: ctx, sleep: c.sleep})
	switch {
	case err == nil:
		return msg, nil
	case errors.Is(err, errPollPending):
		// Deadline reached while still running.
		return c.cancelInFlight(ctx, id)
	default:
		return nil, err
	}
}

// cancelInFlight cancels the remote operation and records the terminal
// cancelled state on the message.
func (c *Chat) cancelInFlight(ctx context.Context, id string) (*llm.Message, error) {
	resp, err := c.client.CancelResponse(ctx, id)
	if err != nil {
		// The cancel request itself failed; reflect the terminal state
		// locally so the caller still observes a cancelled message.
		c.log.Warn().Err(err).Str("response_id", id).Msg("failed to cancel background response")
		if idx := c.findByResponseID(id); idx >= 0 {
			msg := c.messages[idx]
			msg.Status = llm.StatusCancelled
			if msg.Response != nil {
				msg.Response.Status = llm.StatusCancelled
			}
			return msg, nil
		}
		return nil, err
	}
	resp.Status = string(llm.StatusCancelled)
	return c.parseResponse(ctx, resp)
}

// pollBackOff computes the wait between polls as n² + jitter·0.1·n² + 2s,
// with the attempt count capped at 10. The wait grows polynomially and stays
// under 112 seconds for every jitter draw.
type pollBackOff struct {
	attempt int
	jitter  func() float64
}

var _ backoff.BackOff = (*pollBackOff)(nil)

func newPollBackOff(jitter func() float64) *pollBackOff {
	return &pollBackOff{jitter: jitter}
}

// NextBackOff implements backoff.BackOff.
func (p *pollBackOff) NextBackOff() time.Duration {
	if p.attempt < pollAttemptCap {
		p.attempt++
	}
	square := float64(p.attempt * p.attempt)
	secs := square + p.jitter()*pollJitterFraction*square
	return time.Duration(secs*float64(time.Second)) + pollBaseOffset
}

// Reset implements backoff.BackOff.
func (p *pollBackOff) Reset() {
	p.attempt = 0
}

// deadlineBackOff stops the retry loop at an absolute deadline, clamping the
// final wait so the deadline is hit exactly.
type deadlineBackOff struct {
	inner    backoff.BackOff
	deadline time.Time
	now      func() time.Time
}

func (d *deadlineBackOff) NextBackOff() time.Duration {
	remaining := d.deadline.Sub(d.now())
	if remaining <= 0 {
		return backoff.Stop
	}
	wait := d.inner.NextBackOff()
	if wait > remaining {
		wait = remaining
	}
	return wait
}

func (d *deadlineBackOff) Reset() {
	d.inner.Reset()
}

// sleepTimer adapts the session's sleep hook to the retry loop's timer, so
// tests can drive polling on a virtual clock.
type sleepTimer struct {
	ctx   context.Context
	sleep func(ctx context.Context, d time.Duration) error
	ch    chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	if t.ch == nil {
		t.ch = make(chan time.Time, 1)
	}
	t.sleep(t.ctx, d) //nolint:errcheck // a cancelled context is observed by the retry loop
	t.ch <- time.Time{}
}

func (t *sleepTimer) C() <-chan time.Time { return t.ch }

func (t *sleepTimer) Stop() {}
