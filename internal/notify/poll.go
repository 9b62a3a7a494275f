package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is how a claim poll ended.
type Outcome int

const (
	PollRunning Outcome = iota
	// PollCompleted means a tick saw unread notifications.
	PollCompleted
	// PollTimedOut means the ceiling elapsed first.
	PollTimedOut
	// PollStopped means Stop was called or the parent context ended.
	PollStopped
)

func (o Outcome) String() string {
	switch o {
	case PollRunning:
		return "running"
	case PollCompleted:
		return "completed"
	case PollTimedOut:
		return "timed out"
	case PollStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Poll is one running claim poll.
type Poll struct {
	cancel context.CancelFunc
	done   chan struct{}
	ticks  atomic.Int64

	mu      sync.Mutex
	outcome Outcome
}

// Stop ends the poll and waits for it to exit. It is a no-op once the poll
// has finished.
func (p *Poll) Stop() {
	p.cancel()
	<-p.done
}

// Done is closed when the poll has ended.
func (p *Poll) Done() <-chan struct{} { return p.done }

// Outcome returns how the poll ended, or PollRunning.
func (p *Poll) Outcome() Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}

// Ticks returns how many ticks have fired.
func (p *Poll) Ticks() int { return int(p.ticks.Load()) }

func (p *Poll) finish(o Outcome) {
	p.mu.Lock()
	p.outcome = o
	p.mu.Unlock()
}

// StartClaimPoll watches for the result of a bulk claim. Every poll interval
// it fetches page (1,1), bypassing the cache, and stops at the first tick
// with unreadCount > 0, invalidating the cache. It gives up at the poll
// ceiling. Failed ticks are logged and skipped.
func (c *Coordinator) StartClaimPoll(ctx context.Context) *Poll {
	stopCtx, cancel := context.WithCancel(ctx)
	p := &Poll{cancel: cancel, done: make(chan struct{})}
	go c.runPoll(stopCtx, p)
	return p
}

func (c *Coordinator) runPoll(stopCtx context.Context, p *Poll) {
	defer close(p.done)
	defer p.cancel()

	ctx, cancel := context.WithTimeout(stopCtx, c.pollCeiling)
	defer cancel()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	ended := func() Outcome {
		if stopCtx.Err() != nil {
			return PollStopped
		}
		return PollTimedOut
	}

	c.log.Debug().Dur("interval", c.pollInterval).Dur("ceiling", c.pollCeiling).Msg("claim poll started")
	for {
		select {
		case <-ctx.Done():
			p.finish(ended())
			c.log.Info().Stringer("outcome", p.Outcome()).Int("ticks", p.Ticks()).Msg("claim poll ended")
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			continue
		}

		n := p.ticks.Add(1)
		page, err := c.fetcher.ListNotifications(ctx, 1, 1)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn().Err(err).Int64("tick", n).Msg("claim poll tick failed")
			}
			continue
		}
		if page.UnreadCount > 0 {
			c.InvalidateAll()
			p.finish(PollCompleted)
			c.log.Info().Int64("ticks", n).Int("unread", page.UnreadCount).Msg("claim poll completed")
			return
		}
	}
}
