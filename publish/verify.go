package publish

import (
	"context"
	"strconv"
	"time"
)

// DefaultVerifySchedule is the delay before each verification attempt. Four
// attempts, at most 35 seconds of waiting.
var DefaultVerifySchedule = []time.Duration{
	0,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
}

// Verifier confirms that a published artifact became visible on its registry.
// Registries index asynchronously, so a miss is retried on a fixed schedule
// and an exhausted schedule reports PENDING rather than failure.
type Verifier struct {
	schedule []time.Duration
	sleep    func(time.Duration)
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithSchedule overrides the retry schedule.
func WithSchedule(schedule []time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.schedule = schedule
	}
}

// WithSleep overrides the sleep function. Tests inject a no-op.
func WithSleep(sleep func(time.Duration)) VerifierOption {
	return func(v *Verifier) {
		v.sleep = sleep
	}
}

// NewVerifier creates a Verifier with the default schedule.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		schedule: DefaultVerifySchedule,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the publisher's Verify on the retry schedule, returning
// success on the first positive attempt. A cancelled context or an exhausted
// schedule both report PENDING: the artifact may still appear later.
func (v *Verifier) Verify(ctx context.Context, p Publisher, pctx *Context) Result {
	for attempt, delay := range v.schedule {
		if delay > 0 {
			v.sleep(delay)
		}
		if ctx.Err() != nil {
			return pendingResult(p, pctx, "verification interrupted: "+ctx.Err().Error())
		}

		if p.Verify(ctx, pctx) {
			result := Successf("%s %s verified on %s", p.DisplayName(), pctx.Version, p.Registry())
			result.Name = p.Name()
			result.Version = pctx.Version
			return result.WithDetail("attempts", strconv.Itoa(attempt+1))
		}
	}

	return pendingResult(p, pctx,
		"not yet visible on "+p.Registry()+"; it may still be indexing")
}

func pendingResult(p Publisher, pctx *Context, message string) Result {
	result := Pending(message)
	result.Name = p.Name()
	result.Version = pctx.Version
	return result
}
