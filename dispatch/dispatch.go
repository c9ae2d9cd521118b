// Package dispatch delivers operator replies to the customer's platform.
package dispatch

import (
	"context"
	"errors"
	"time"

	"nexusdesk/models"
)

var ErrNoContact = errors.New("message has no usable reply contact")

type Dispatcher interface {
	Dispatch(ctx context.Context, msg models.Message, reply string) error
}

// DelayDispatcher pretends to deliver after a fixed delay.
type DelayDispatcher struct {
	Delay time.Duration
}

func (d DelayDispatcher) Dispatch(ctx context.Context, msg models.Message, reply string) error {
	if d.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Router picks a dispatcher by platform and falls back to Default.
type Router struct {
	Default Dispatcher
	routes  map[models.Platform]Dispatcher
}

func NewRouter(fallback Dispatcher) *Router {
	return &Router{
		Default: fallback,
		routes:  make(map[models.Platform]Dispatcher),
	}
}

func (r *Router) Route(platform models.Platform, d Dispatcher) {
	r.routes[platform] = d
}

func (r *Router) Dispatch(ctx context.Context, msg models.Message, reply string) error {
	if d, ok := r.routes[msg.Platform]; ok {
		return d.Dispatch(ctx, msg, reply)
	}
	return r.Default.Dispatch(ctx, msg, reply)
}
