package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/task"
)

// Limiter is a process wide admission gate for outbound provider calls.
// Each provider has a fixed per-window call budget. Calls over budget are
// parked on a FIFO wait list and resumed when the window resets.
// There is no ordering guarantee across different providers.
type Limiter struct {
	*task.Task

	mtx     sync.Mutex
	budgets map[string]int
	used    map[string]int
	waiting map[string][]chan struct{}
}

func NewLimiter(config *config.Config) (self *Limiter) {
	self = new(Limiter)

	self.budgets = config.RateLimiter.Budgets
	self.used = make(map[string]int, len(self.budgets))
	self.waiting = make(map[string][]chan struct{}, len(self.budgets))

	self.Task = task.NewTask(config, "rate-limiter").
		WithPeriodicSubtaskFunc(config.RateLimiter.Window, func() error {
			self.Reset()
			return nil
		})

	return
}

// RunThrottled executes f once the provider's budget has capacity.
// An unknown provider name is a configuration error, not a silent pass.
func (self *Limiter) RunThrottled(ctx context.Context, provider string, f func() error) (err error) {
	err = self.acquire(ctx, provider)
	if err != nil {
		return
	}
	return f()
}

func (self *Limiter) acquire(ctx context.Context, provider string) (err error) {
	self.mtx.Lock()

	budget, ok := self.budgets[provider]
	if !ok {
		self.mtx.Unlock()
		return fmt.Errorf("no rate limiter budget configured for provider %s", provider)
	}

	if self.used[provider] < budget {
		self.used[provider]++
		self.mtx.Unlock()
		return nil
	}

	// Budget exhausted, wait for a window reset
	admitted := make(chan struct{})
	self.waiting[provider] = append(self.waiting[provider], admitted)
	self.mtx.Unlock()

	select {
	case <-ctx.Done():
		self.abandon(provider, admitted)
		return ctx.Err()
	case <-admitted:
		return nil
	}
}

// Reset starts a new admission window: counters drop to zero and parked
// callers are admitted in FIFO order up to the new budget.
// Runs on the window tick, exposed for tests that control time.
func (self *Limiter) Reset() {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for provider, budget := range self.budgets {
		self.used[provider] = 0

		queue := self.waiting[provider]
		n := min(budget, len(queue))
		for i := 0; i < n; i++ {
			close(queue[i])
		}
		self.used[provider] = n
		self.waiting[provider] = queue[n:]
	}
}

func (self *Limiter) abandon(provider string, admitted chan struct{}) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	queue := self.waiting[provider]
	for i, ch := range queue {
		if ch == admitted {
			self.waiting[provider] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
	// Already admitted between ctx cancellation and this call, give the slot back
	select {
	case <-admitted:
		if self.used[provider] > 0 {
			self.used[provider]--
		}
	default:
	}
}
